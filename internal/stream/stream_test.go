package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDataOrderPreserved(t *testing.T) {
	d := NewData()
	d.Append(Envelope{Type: TypeID, Content: "doc-1"})
	d.AppendDelta("hello")
	d.Append(Envelope{Type: TypeFinish})
	d.Close()

	var got []EnvelopeType
	for {
		env, ok, err := d.Next(t.Context())
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, env.Type)
	}
	assert.Equal(t, []EnvelopeType{TypeID, TypeTextDelta, TypeFinish}, got)
}

func TestDataCloseIsIdempotent(t *testing.T) {
	d := NewData()
	d.Close()
	d.Close()
	assert.True(t, d.Closed())

	_, ok, err := d.Next(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataAppendAfterCloseDropped(t *testing.T) {
	d := NewData()
	d.Close()
	d.AppendDelta("late")

	_, ok, err := d.Next(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataNextBlocksUntilAppend(t *testing.T) {
	d := NewData()

	go func() {
		time.Sleep(10 * time.Millisecond)
		d.AppendDelta("wakeup")
	}()

	env, ok, err := d.Next(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "wakeup", env.Content)
}

func TestDataNextContextCanceled(t *testing.T) {
	d := NewData()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := d.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDataConcurrentProducers(t *testing.T) {
	d := NewData()

	const producers, perProducer = 8, 50
	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perProducer {
				d.AppendDelta("x")
			}
		}()
	}

	done := make(chan int)
	go func() {
		n := 0
		for {
			_, ok, err := d.Next(context.Background())
			if err != nil || !ok {
				done <- n
				return
			}
			n++
		}
	}()

	wg.Wait()
	d.Close()
	assert.Equal(t, producers*perProducer, <-done)
}

func TestWriterRequiresFlusher(t *testing.T) {
	_, err := NewWriter(nopResponseWriter{})
	require.Error(t, err)
}

func TestWriterDrain(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	d := NewData()
	d.Append(Envelope{Type: TypeTitle, Content: "Draft"})
	d.AppendDelta("first")
	d.Close()

	require.NoError(t, w.Drain(t.Context(), d))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []string
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "data: ") {
			events = append(events, strings.TrimPrefix(line, "data: "))
		}
	}
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"type":"title","content":"Draft"}`, events[0])
	assert.JSONEq(t, `{"type":"text-delta","content":"first"}`, events[1])
}

// nopResponseWriter implements http.ResponseWriter without http.Flusher.
type nopResponseWriter struct{}

func (nopResponseWriter) Header() http.Header         { return http.Header{} }
func (nopResponseWriter) Write(b []byte) (int, error) { return len(b), nil }
func (nopResponseWriter) WriteHeader(int)             {}
