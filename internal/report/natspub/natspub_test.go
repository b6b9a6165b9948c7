package natspub_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/programme-lv/codecheck/api"
	"github.com/programme-lv/codecheck/internal/logging"
	"github.com/programme-lv/codecheck/internal/report/natspub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	flushes  int
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushWithContext(context.Context) error {
	f.flushes++
	return nil
}

func TestPublishSendsJSON(t *testing.T) {
	conn := &fakeConn{}
	p := natspub.New(conn, "codecheck.feedback", logging.Discard())
	defer p.Close()

	msg := api.NewStartPlan("p1", "sum", 4)
	require.NoError(t, p.Publish(context.Background(), "p1", msg))

	require.Len(t, conn.payloads, 1)
	assert.Equal(t, []string{"codecheck.feedback"}, conn.subjects)
	assert.Equal(t, 1, conn.flushes)

	var got api.StartPlan
	require.NoError(t, json.Unmarshal(conn.payloads[0], &got))
	assert.Equal(t, api.StartPlanMsg, got.MsgType)
	assert.Equal(t, "p1", got.PlanID)
	assert.Equal(t, 4, got.Directives)
}

func TestPublishWrapsConnError(t *testing.T) {
	cause := errors.New("nats: connection closed")
	p := natspub.New(&fakeConn{err: cause}, "s", logging.Discard())

	err := p.Publish(context.Background(), "p1", api.NewFeedback("p1", "j", api.Graded))
	require.ErrorIs(t, err, cause)
}

func TestPublishRejectsUnmarshalable(t *testing.T) {
	conn := &fakeConn{}
	p := natspub.New(conn, "s", logging.Discard())

	err := p.Publish(context.Background(), "p1", make(chan int))
	require.Error(t, err)
	assert.Empty(t, conn.payloads)
}
