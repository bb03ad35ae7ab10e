package commitlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryMarshalRoundTrip(t *testing.T) {
	e := Entry{Offset: 128, Size: 64}
	buf := make([]byte, entWidth)
	e.marshal(buf)

	got := unmarshalEntry(buf)
	require.Equal(t, e, got)
}
