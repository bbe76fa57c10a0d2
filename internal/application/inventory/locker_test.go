package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/application/inventory"
	"github.com/BilalDariyeri/MUBA-MUHASEBE-VE-MUSTERI-TAKIP-UYGULAMASI-sub001/internal/domain"
)

func TestLocalLocker_MismaClaveEspera(t *testing.T) {
	l := inventory.NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	require.ErrorIs(t, err, domain.ErrLockNotObtained)

	other, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	other()

	unlock()
	again, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestLocalLocker_VariasClavesLiberaTodoSiFalla(t *testing.T) {
	l := inventory.NewLocalLocker()
	holdB, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "b", "a", "a")
	require.Error(t, err)

	// "a" quedó libre aunque se adquirió antes de fallar en "b"
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlockA()
	holdB()
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, inventory.SortedUnique([]string{"c", "", "a", "b", "a"}))
	assert.Empty(t, inventory.SortedUnique(nil))
}
