package lsptransport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWriterAndReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	require.NoError(t, fw.WriteFrame([]byte("hello")))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestReadFrameRejectsNegatedSize(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMultiplexWriter(&buf)
	require.NoError(t, mw.PutLine("SDK PATH"))

	_, err := ReadFrame(&buf)
	assert.Error(t, err)
}

func TestMultiplexWriterNegatesFSLineSize(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMultiplexWriter(&buf)
	require.NoError(t, mw.PutLine("abc"))

	b := buf.Bytes()
	require.Len(t, b, 4+4) // size prefix + "abc\n"
	size := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
	assert.Equal(t, int32(-4), size) // -(len("abc")+1)
	assert.Equal(t, "abc\n", string(b[4:]))
}

func TestLineConnPutAndGetLine(t *testing.T) {
	var out bytes.Buffer
	in := bytes.NewBufferString("true\n")
	conn := NewLineConn(in, &out)

	require.NoError(t, conn.PutLine("INFO"))
	assert.Equal(t, "INFO\n", out.String())

	line, err := conn.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "true", line)
}

func TestLineConnReadData(t *testing.T) {
	in := bytes.NewBufferString("hello world")
	conn := NewLineConn(in, &bytes.Buffer{})
	data, err := conn.ReadData(5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestMultiplexConnPutLineNegatesSizeAndGetLineIsPlain(t *testing.T) {
	var out bytes.Buffer
	in := bytes.NewBufferString("false\n")
	conn := NewMultiplexConn(&out, in)

	require.NoError(t, conn.PutLine("LIST DIRECTORY"))
	assert.True(t, out.Len() > 0)

	line, err := conn.GetLine()
	require.NoError(t, err)
	assert.Equal(t, "false", line)
}
