package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/food-order-backend/internal/apperr"
)

var home = Delivery{Street: "12 Marina Rd", City: "Lagos", ZipCode: "101001"}

func TestDeliveryValidate(t *testing.T) {
	assert.NoError(t, home.Validate())

	cases := map[string]Delivery{
		"street":  {City: "Lagos", ZipCode: "1"},
		"city":    {Street: "x", ZipCode: "1"},
		"zipCode": {Street: "x", City: "Lagos", ZipCode: "   "},
	}
	for field, d := range cases {
		err := d.Validate()
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()

	first, err := svc.Add(ctx, 1, "Home", home, false)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Add(ctx, 1, "Work", Delivery{Street: "1 Broad St", City: "Lagos", ZipCode: "101002"}, false)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	def, err := svc.Default(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)
}

func TestAtMostOneDefault(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()

	a, _ := svc.Add(ctx, 1, "Home", home, false)
	b, _ := svc.Add(ctx, 1, "Work", home, true)
	require.NoError(t, svc.SetDefault(ctx, 1, a.ID))
	c, _ := svc.Add(ctx, 1, "Gym", home, true)

	addrs, err := svc.List(ctx, 1)
	require.NoError(t, err)
	defaults := 0
	for _, x := range addrs {
		if x.IsDefault {
			defaults++
			assert.Equal(t, c.ID, x.ID)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.NotEqual(t, b.ID, c.ID)
}

func TestDeletingDefaultPromotesOldest(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()

	a, _ := svc.Add(ctx, 1, "Home", home, false)
	b, _ := svc.Add(ctx, 1, "Work", home, false)
	c, _ := svc.Add(ctx, 1, "Gym", home, true)

	require.NoError(t, svc.Delete(ctx, 1, c.ID))
	def, err := svc.Default(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, a.ID, def.ID)

	require.NoError(t, svc.Delete(ctx, 1, b.ID))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, 1, b.ID)))
}

func TestUpdateValidatesAndKeepsDefault(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()
	a, _ := svc.Add(ctx, 1, "Home", home, false)

	_, err := svc.Update(ctx, 1, a.ID, "Home", Delivery{Street: "x"})
	assert.True(t, apperr.IsValidation(err))

	updated, err := svc.Update(ctx, 1, a.ID, "Flat", Delivery{Street: " 3 Allen Ave ", City: "Ikeja", ZipCode: "100271"})
	require.NoError(t, err)
	assert.Equal(t, "3 Allen Ave", updated.Street)
	assert.True(t, updated.IsDefault)

	_, err = svc.Update(ctx, 2, a.ID, "Flat", home)
	assert.True(t, apperr.IsNotFound(err))
}

func TestResolve(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()

	_, err := svc.Resolve(ctx, 1, 0, nil)
	assert.True(t, apperr.IsValidation(err))

	work := Delivery{Street: "1 Broad St", City: "Lagos", ZipCode: "101002"}
	_, _ = svc.Add(ctx, 1, "Home", home, false)
	w, _ := svc.Add(ctx, 1, "Work", work, false)

	d, err := svc.Resolve(ctx, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, home, d)

	d, err = svc.Resolve(ctx, 1, w.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, work, d)

	inline := Delivery{Street: "9 Creek Rd", City: "Apapa", ZipCode: "102272", Instructions: "gate 2"}
	d, err = svc.Resolve(ctx, 1, w.ID, &inline)
	require.NoError(t, err)
	assert.Equal(t, inline, d)

	_, err = svc.Resolve(ctx, 1, 0, &Delivery{Street: "x", City: "y"})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Resolve(ctx, 1, 999, nil)
	assert.True(t, apperr.IsNotFound(err))
}
