package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObservers(t *testing.T) {
	var got []string
	first := ObserverFunc(func(ctx OperationContext) { got = append(got, "first:"+ctx.Operation) })
	second := ObserverFunc(func(ctx OperationContext) { got = append(got, "second:"+ctx.Operation) })

	Observers(first, nil, second).ObserveOperation(OperationContext{Operation: "read"})

	assert.Equal(t, []string{"first:read", "second:read"}, got)
	assert.NotPanics(t, func() { Observers().ObserveOperation(OperationContext{}) })
}
