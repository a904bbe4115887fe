package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewErrorFormatsWithoutCause(t *testing.T) {
	err := New("probe.identify", KindUnexpectedResponse)
	require.Equal(t, "bitforce: probe.identify: unexpected response", err.Error())
}

func TestWrapErrorFormatsWithCause(t *testing.T) {
	cause := fmt.Errorf("read: broken pipe")
	err := Wrap("queue.send", KindTransportClosed, cause)
	require.Equal(t, "bitforce: queue.send: transport closed: read: broken pipe", err.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap("op", KindTimeout, nil))
}

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	inner := New("control.temp", KindThermalThrottle)
	outer := Wrap("minerloop.stats", KindTransportClosed, inner)

	require.True(t, Is(outer, KindTransportClosed))
	require.True(t, Is(inner, KindThermalThrottle))
}

func TestIsFalseForUnrelatedError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), KindTimeout))
	require.False(t, Is(nil, KindTimeout))
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap("op", KindTimeout, cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, cause, errors.Unwrap(e))
}
