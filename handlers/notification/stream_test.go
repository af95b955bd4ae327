package notification

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/eduplatform-api/internal/testutil"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/services/mail"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPush(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewNotificationService(db, nil, logger.Nop())
	h := NewNotificationHandler(svc, logger.Nop())
	ctx := context.Background()

	student := testutil.CreateUser(t, db, "alice@test.io", "Alice", model.RoleStudent)
	old, err := svc.CreateInApp(ctx, student.ID, model.NotificationNewCourse, mail.Data{CourseName: "Old"}, nil)
	require.NoError(t, err)

	latest, err := svc.LatestNotificationID(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, old.ID, latest)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	state := &streamState{lastID: latest, unread: -1}

	// Nothing new, but the client has not seen the count yet
	require.NoError(t, h.push(ctx, w, student.ID, state))
	assert.Equal(t, "event: unread_count\ndata: {\"unread_count\":1}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, h.push(ctx, w, student.ID, state))
	assert.Equal(t, ": ping\n\n", buf.String())

	fresh, err := svc.CreateInApp(ctx, student.ID, model.NotificationSubmissionGraded, mail.Data{CourseName: "Essay"}, nil)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, h.push(ctx, w, student.ID, state))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "id: "), out)
	assert.Contains(t, out, "event: notification\n")
	assert.Contains(t, out, `"type":"submission_graded"`)
	assert.NotContains(t, out, "Old")
	assert.Contains(t, out, "event: unread_count\ndata: {\"unread_count\":2}\n\n")
	assert.Equal(t, fresh.ID, state.lastID)
}

func TestStreamPumpStopsWithContext(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewNotificationService(db, nil, logger.Nop())
	h := NewNotificationHandler(svc, logger.Nop())
	h.pollInterval = 10 * time.Millisecond

	student := testutil.CreateUser(t, db, "alice@test.io", "Alice", model.RoleStudent)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	err := h.pump(ctx, bufio.NewWriter(&buf), student.ID, 0)
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "retry: 5000\nevent: ready\n"), buf.String())
}
