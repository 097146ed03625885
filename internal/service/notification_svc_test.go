package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hualang_api/internal/model"
)

func TestNotificationCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.createUser(t, "Gallery", model.RoleCompany)
	receiver := env.createUser(t, "Alice", model.RoleArtist)

	events, cancel := env.notifications.Subscribe(receiver.ID)
	defer cancel()

	n, err := env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{
		ReceiverID: receiver.ID,
		Type:       model.NotificationMessage,
		Content:    "  周末布展  ",
		Payload:    map[string]interface{}{"hall": "A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "周末布展", n.Content)
	assert.Equal(t, model.NotificationPending, n.Status)

	select {
	case ev := <-events:
		assert.Equal(t, EventNotification, ev.Name)
		var got model.Notification
		require.NoError(t, json.Unmarshal(ev.Data, &got))
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "A", got.Payload["hall"])
	case <-time.After(time.Second):
		t.Fatal("没有收到推送")
	}

	t.Run("校验", func(t *testing.T) {
		_, err := env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{ReceiverID: receiver.ID, Type: "spam", Content: "x"})
		requireKind(t, err, KindValidation)

		_, err = env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{ReceiverID: receiver.ID, Type: model.NotificationInvitation, Content: "x"})
		requireKind(t, err, KindValidation)

		_, err = env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{ReceiverID: receiver.ID, Type: model.NotificationMessage, Content: "   "})
		requireKind(t, err, KindValidation)

		_, err = env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{ReceiverID: 9999, Type: model.NotificationMessage, Content: "x"})
		requireKind(t, err, KindNotFound)
	})
}

func TestNotificationStatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.createUser(t, "Gallery", model.RoleCompany)
	receiver := env.createUser(t, "Alice", model.RoleArtist)
	other := env.createUser(t, "Bob", model.RoleArtist)

	n, err := env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{
		ReceiverID: receiver.ID, Type: model.NotificationMessage, Content: "hello",
	})
	require.NoError(t, err)

	unread, err := env.notifications.ListUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	_, err = env.notifications.UpdateStatus(ctx, sender.ID, n.ID, model.NotificationRead)
	requireKind(t, err, KindForbidden)

	_, err = env.notifications.UpdateStatus(ctx, receiver.ID, n.ID, model.NotificationAccepted)
	requireKind(t, err, KindValidation)

	updated, err := env.notifications.UpdateStatus(ctx, receiver.ID, n.ID, model.NotificationRead)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationRead, updated.Status)

	unread, err = env.notifications.ListUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	requireKind(t, env.notifications.Delete(ctx, other.ID, n.ID), KindForbidden)
	require.NoError(t, env.notifications.Delete(ctx, sender.ID, n.ID))
	requireKind(t, env.notifications.Delete(ctx, receiver.ID, n.ID), KindNotFound)
}
