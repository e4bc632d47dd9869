package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequest(t *testing.T) {
	testcases := []struct {
		desc     string
		input    Request
		expected string
		wantErr  error
	}{
		{
			desc: "no body emits no content-length",
			input: Request{
				Method: "GET",
				Target: "/index.html",
				Host:   "example.com",
			},
			expected: "GET /index.html HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"\r\n",
		},
		{
			desc: "body emits content-length exactly once",
			input: Request{
				Method: "POST",
				Target: "/submit",
				Host:   "example.com",
				Fields: []Field{
					{Name: "Content-Type", Value: "text/plain"},
					// A lying caller value must not survive serialization.
					{Name: "content-length", Value: "999"},
				},
				Body: []byte("hello"),
			},
			expected: "POST /submit HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"Content-Type: text/plain\r\n" +
				"Content-Length: 5\r\n" +
				"\r\n" +
				"hello",
		},
		{
			desc: "fields keep insertion order",
			input: Request{
				Method: "GET",
				Target: "/",
				Host:   "example.com",
				Fields: []Field{
					{Name: "B-Second", Value: "2"},
					{Name: "A-First", Value: "1"},
				},
			},
			expected: "GET / HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"B-Second: 2\r\n" +
				"A-First: 1\r\n" +
				"\r\n",
		},
		{
			desc: "caller host wins",
			input: Request{
				Method: "GET",
				Target: "/",
				Host:   "example.com",
				Fields: []Field{
					{Name: "Host", Value: "override.example"},
				},
			},
			expected: "GET / HTTP/1.1\r\n" +
				"Host: override.example\r\n" +
				"\r\n",
		},
		{
			desc: "query kept on target",
			input: Request{
				Method: "GET",
				Target: "/search?q=hey",
				Host:   "example.com",
			},
			expected: "GET /search?q=hey HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"\r\n",
		},
		{
			desc: "empty target defaults to root",
			input: Request{
				Method: "GET",
				Host:   "example.com",
			},
			expected: "GET / HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"\r\n",
		},
		{
			desc: "invalid method",
			input: Request{
				Method: "GE T",
				Target: "/",
				Host:   "example.com",
			},
			wantErr: ErrInvalidMethod,
		},
		{
			desc: "field value with CRLF is rejected",
			input: Request{
				Method: "GET",
				Target: "/",
				Host:   "example.com",
				Fields: []Field{
					{Name: "X-Sneaky", Value: "a\r\nInjected: yes"},
				},
			},
			wantErr: ErrInvalidField,
		},
		{
			desc: "field name with spaces is rejected",
			input: Request{
				Method: "GET",
				Target: "/",
				Host:   "example.com",
				Fields: []Field{
					{Name: "not a token", Value: "v"},
				},
			},
			wantErr: ErrInvalidField,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			buf := bytes.NewBuffer(nil)
			err := WriteRequest(buf, &tc.input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestWriteRequestContentLengthCount(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	err := WriteRequest(buf, &Request{
		Method: "PUT",
		Target: "/",
		Host:   "example.com",
		Body:   []byte("0123456789"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "Content-Length:"))
	assert.Contains(t, buf.String(), "Content-Length: 10\r\n")
}

func TestWriteRequestEmitsCRLFOnly(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	err := WriteRequest(buf, &Request{
		Method: "GET",
		Target: "/",
		Host:   "example.com",
		Fields: []Field{{Name: "Accept", Value: "*/*"}},
	})
	require.NoError(t, err)

	head := buf.String()
	// Every LF in the head must be preceded by a CR.
	for i := 0; i < len(head); i++ {
		if head[i] == '\n' {
			require.Greater(t, i, 0)
			assert.Equal(t, byte('\r'), head[i-1])
		}
	}
}
