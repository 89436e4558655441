package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldError_String(t *testing.T) {
	fe := NewFieldError(nil, "Labels", "labels", TagKeyRegex, "^a$")
	assert.Equal(t, "field 'Labels' validation failed on tag 'keyregex'", fe.Error())

	fe.WithMessage("bad labels").WithNamespace("Order.Labels")
	assert.Equal(t, "bad labels", fe.Error())
	assert.Equal(t, "Order.Labels", fe.Namespace)
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		NewFieldError(nil, "Labels", "labels", TagKeyRegex, "^a$").WithMessage("m1"),
		NewFieldError(nil, "Labels", "labels", TagKeyRegex, "^.{1,3}$").WithMessage("m2"),
		NewFieldError(nil, "Name", "name", "required", "").WithMessage("m3").WithNamespace("Inner.Name"),
	}

	assert.Equal(t, "m1; m2; m3", errs.Error())
	assert.True(t, errs.Has("Labels"))
	assert.True(t, errs.Has("Inner.Name"))
	assert.False(t, errs.Has("Other"))
	assert.Len(t, errs.Get("Labels"), 2)
	assert.Len(t, errs.GetByTag("required"), 1)
	assert.Equal(t, []string{"Labels", "Inner.Name"}, errs.Fields())
	assert.Equal(t, []string{"m1", "m2", "m3"}, errs.Messages())

	assert.Equal(t, "validation passed: no errors", ValidationErrors(nil).Error())
}

func TestAggregateValidationError(t *testing.T) {
	agg := &AggregateValidationError{
		TypeName: "Order",
		Errors:   ValidationErrors{NewFieldError(nil, "Labels", "labels", TagKeyRegex, "^a$").WithMessage("m1")},
	}

	assert.Equal(t, "object of type Order has some invalid values: m1", agg.Error())

	wrapped := fmt.Errorf("save order: %w", agg)
	assert.True(t, errors.Is(wrapped, ErrValidationFailed))

	got, ok := AsAggregate(wrapped)
	require.True(t, ok)
	assert.Same(t, agg, got)

	_, ok = AsAggregate(errors.New("other"))
	assert.False(t, ok)

	data, err := agg.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Order", decoded["type"])
	assert.Len(t, decoded["errors"], 1)
}

func TestJoinNamespace(t *testing.T) {
	assert.Equal(t, "Labels", joinNamespace("", "Labels"))
	assert.Equal(t, "Order.Labels", joinNamespace("Order", "Labels"))
}
