package handlers

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSSEWriteFramesEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, sseWrite(w, "ticket.created", map[string]string{"ticket_id": "CRM-2510-0001"}))
	require.Equal(t, "event: ticket.created\ndata: {\"ticket_id\":\"CRM-2510-0001\"}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, sseWrite(w, "", "plain"))
	require.Equal(t, "data: \"plain\"\n\n", buf.String())
}
