package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherDeliversOnlyRegisteredType(t *testing.T) {
	var d Dispatcher
	var gotAnn, gotBin bool
	d.SetCallback(Annotation, func(reg Registration, payload any) { gotAnn = true })

	d.Deliver(Registration{Type: Annotation}, Annotation{Strings: []string{"x"}})
	d.Deliver(Registration{Type: Binary}, Binary{Data: []byte("x")})

	assert.True(t, gotAnn)
	assert.False(t, gotBin)
}

func TestDispatcherSilentNoOpWithoutCallback(t *testing.T) {
	var d Dispatcher
	assert.NotPanics(t, func() {
		d.Deliver(Registration{Type: Logic}, Logic{Channel: 0, Data: []byte{1}})
	})
}

func TestDispatcherReplaceCallback(t *testing.T) {
	var d Dispatcher
	calls := 0
	d.SetCallback(Metadata, func(reg Registration, payload any) { calls++ })
	d.SetCallback(Metadata, func(reg Registration, payload any) { calls += 10 })
	d.Deliver(Registration{Type: Metadata}, Metadata{Int: 1})
	assert.Equal(t, 10, calls)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "annotation", Annotation.String())
	assert.Equal(t, "logic", Logic.String())
}
