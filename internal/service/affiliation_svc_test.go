package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hualang_api/internal/model"
)

func TestAcceptInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	companyUser, company := env.createCompany(t, "Gallery")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)

	inv, err := env.affiliation.Invite(ctx, companyUser.ID, artistUser.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationInvitation, inv.Type)
	assert.Equal(t, model.NotificationPending, inv.Status)

	// 邀请方不能自己接受
	_, err = env.affiliation.Respond(ctx, companyUser.ID, inv.ID, "accepted")
	requireKind(t, err, KindForbidden)

	receipt, err := env.affiliation.Respond(ctx, artistUser.ID, inv.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationAlert, receipt.Type)
	assert.Equal(t, companyUser.ID, receipt.ReceiverID)
	assert.Equal(t, artistUser.ID, receipt.SenderID)
	assert.Equal(t, "Alice 已接受您的邀请。", receipt.Content)

	updated, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.CompanyID)
	assert.Equal(t, company.ID, *updated.CompanyID)

	gone, err := env.uow.Notifications.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, gone, "邀请处理后应删除")

	roster, err := env.artists.ListByCompanyUser(ctx, companyUser.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, artist.ID, roster[0].ID)
}

func TestArtistInitiatedInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	companyUser, company := env.createCompany(t, "Gallery")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)

	inv, err := env.affiliation.Invite(ctx, artistUser.ID, companyUser.ID, "希望签约")
	require.NoError(t, err)

	receipt, err := env.affiliation.ResolveInvitation(ctx, companyUser.ID, inv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, artistUser.ID, receipt.ReceiverID)

	updated, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.True(t, updated.AffiliatedWith(company.ID))
}

func TestAcceptInvitation_AlreadyAffiliatedElsewhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, first := env.createCompany(t, "First")
	secondUser, _ := env.createCompany(t, "Second")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)
	env.affiliate(t, artist, first)

	inv, err := env.affiliation.Invite(ctx, secondUser.ID, artistUser.ID, "")
	require.NoError(t, err)

	_, err = env.affiliation.Respond(ctx, artistUser.ID, inv.ID, "accepted")
	requireKind(t, err, KindConflict)

	// 事务回滚：邀请仍在，签约关系不变，没有回执
	still, err := env.uow.Notifications.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)

	updated, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.True(t, updated.AffiliatedWith(first.ID))

	alerts, err := env.uow.Notifications.ListUnread(ctx, secondUser.ID)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDeclineInvitation_LegacyRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	companyUser, _ := env.createCompany(t, "Gallery")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)

	inv, err := env.affiliation.Invite(ctx, companyUser.ID, artistUser.ID, "")
	require.NoError(t, err)

	receipt, err := env.affiliation.Respond(ctx, artistUser.ID, inv.ID, "rejected")
	require.NoError(t, err)
	assert.Equal(t, "Alice 已拒绝您的邀请。", receipt.Content)
	assert.Equal(t, companyUser.ID, receipt.ReceiverID)

	updated, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsAffiliated())

	gone, err := env.uow.Notifications.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestInvite_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	companyUser, company := env.createCompany(t, "Gallery")
	otherCompanyUser, _ := env.createCompany(t, "Other")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)

	_, err := env.affiliation.Invite(ctx, companyUser.ID, otherCompanyUser.ID, "")
	requireKind(t, err, KindValidation)

	_, err = env.affiliation.Invite(ctx, companyUser.ID, 9999, "")
	requireKind(t, err, KindNotFound)

	env.affiliate(t, artist, company)
	_, err = env.affiliation.Invite(ctx, companyUser.ID, artistUser.ID, "")
	requireKind(t, err, KindConflict)

	_, err = ParseDecision("maybe")
	requireKind(t, err, KindValidation)
}

func TestRespond_NonInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.createUser(t, "Sender", model.RoleCompany)
	receiver := env.createUser(t, "Receiver", model.RoleArtist)

	n, err := env.notifications.Create(ctx, sender.ID, &CreateNotificationInput{
		ReceiverID: receiver.ID, Type: model.NotificationMessage, Content: "你好",
	})
	require.NoError(t, err)

	_, err = env.affiliation.Respond(ctx, receiver.ID, n.ID, "accepted")
	requireKind(t, err, KindValidation)

	_, err = env.affiliation.Respond(ctx, sender.ID, n.ID, "read")
	requireKind(t, err, KindForbidden)

	updated, err := env.affiliation.Respond(ctx, receiver.ID, n.ID, "read")
	require.NoError(t, err)
	assert.Equal(t, model.NotificationRead, updated.Status)

	unread, err := env.notifications.ListUnread(ctx, receiver.ID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	requireKind(t, env.notifications.Delete(ctx, 424242, n.ID), KindForbidden)
	require.NoError(t, env.notifications.Delete(ctx, receiver.ID, n.ID))
}

func TestUnbindArtist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	companyUser, company := env.createCompany(t, "Gallery")
	otherUser, _ := env.createCompany(t, "Other")
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)
	env.affiliate(t, artist, company)

	// 不属于该公司：冲突且不改动
	requireKind(t, env.affiliation.Unbind(ctx, otherUser.ID, artistUser.ID), KindConflict)
	unchanged, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.AffiliatedWith(company.ID))

	requireKind(t, env.affiliation.Unbind(ctx, 9999, artistUser.ID), KindNotFound)
	requireKind(t, env.affiliation.Unbind(ctx, companyUser.ID, 9999), KindNotFound)

	require.NoError(t, env.affiliation.Unbind(ctx, companyUser.ID, artistUser.ID))
	updated, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsAffiliated())

	// 再次解约：已不属于该公司
	requireKind(t, env.affiliation.Unbind(ctx, companyUser.ID, artistUser.ID), KindConflict)
}

func TestAcceptInvitation_ConcurrentCompanies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	artistUser, artist := env.createArtist(t, "Alice", 100, 100)
	firstUser, first := env.createCompany(t, "First")
	secondUser, second := env.createCompany(t, "Second")

	inv1, err := env.affiliation.Invite(ctx, firstUser.ID, artistUser.ID, "")
	require.NoError(t, err)
	inv2, err := env.affiliation.Invite(ctx, secondUser.ID, artistUser.ID, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []int64{inv1.ID, inv2.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, results[i] = env.affiliation.ResolveInvitation(ctx, artistUser.ID, id, true)
		}(i, id)
	}
	wg.Wait()

	// 只有一家公司签约成功，另一家得到冲突
	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, KindConflict)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := env.uow.Artists.GetByID(ctx, artist.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompanyID)
	assert.Contains(t, []int64{first.ID, second.ID}, *stored.CompanyID)
}
