package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// TestCreateGroup_SeedsAdminMembership checks the creator lands as an
// approved ADMIN member in the same transaction.
func TestCreateGroup_SeedsAdminMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "garden co-op"})
	require.NoError(t, err)
	assert.Equal(t, admin, group.AdminID)
	assert.Equal(t, model.GroupPrivate, group.Visibility)

	members, err := env.memberships.ListMembers(ctx, group.ID, admin)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, admin, members[0].UserID)
	assert.Equal(t, model.MemberApproved, members[0].Status)
	assert.Equal(t, model.RoleAdmin, members[0].Role)
}

func TestCreateGroup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)

	_, err := env.memberships.CreateGroup(ctx, admin, GroupInput{})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "x", Visibility: "SECRET"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

// TestRequestJoin_NotifiesAdmin files a request and checks the admin's
// inbox.
func TestRequestJoin_NotifiesAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "swap shelf"})
	require.NoError(t, err)

	req, err := env.memberships.RequestJoin(ctx, group.ID, applicant, "hi there")
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)

	notes, err := env.notifier.ListNotifications(ctx, admin)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyJoinRequest, notes[0].Kind)
	assert.Equal(t, req.ID, notes[0].RefID)
}

// TestRequestJoin_DuplicatePending rejects a second request while one
// is open.
func TestRequestJoin_DuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)

	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
	require.NoError(t, err)
	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
	require.ErrorIs(t, err, repository.ErrConflict)
}

// TestRequestJoin_AlreadyMember rejects requests from approved
// members, including the admin.
func TestRequestJoin_AlreadyMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)

	_, err = env.memberships.RequestJoin(ctx, group.ID, admin, "")
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestRequestJoin_MissingGroup(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.memberships.RequestJoin(context.Background(), 404, env.newUser(t), "")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// TestApprove_FullFlow walks request, approval, membership and the
// requester's notification.
func TestApprove_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)
	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
	require.NoError(t, err)

	require.NoError(t, env.memberships.Approve(ctx, group.ID, applicant, admin))

	members, err := env.memberships.ListMembers(ctx, group.ID, admin)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	notes, err := env.notifier.ListNotifications(ctx, applicant)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyJoinApproved, notes[0].Kind)

	// The request is resolved; the pending list is empty.
	pending, err := env.memberships.ListPendingRequests(ctx, group.ID, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Re-approving the now-approved pair is a no-op success.
	require.NoError(t, env.memberships.Approve(ctx, group.ID, applicant, admin))
}

// TestApprove_Gates rejects non-admin actors and pairs with nothing
// pending.
func TestApprove_Gates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)
	stranger := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)
	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
	require.NoError(t, err)

	err = env.memberships.Approve(ctx, group.ID, applicant, stranger)
	require.ErrorIs(t, err, repository.ErrForbidden)

	// No request and no membership for this pair.
	err = env.memberships.Approve(ctx, group.ID, stranger, admin)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// TestApprove_MemberLimit enforces the optional cap at approval time.
func TestApprove_MemberLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	first := env.newUser(t)
	second := env.newUser(t)

	limit := uint32(2) // admin plus one
	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g", MemberLimit: &limit})
	require.NoError(t, err)

	_, err = env.memberships.RequestJoin(ctx, group.ID, first, "")
	require.NoError(t, err)
	require.NoError(t, env.memberships.Approve(ctx, group.ID, first, admin))

	_, err = env.memberships.RequestJoin(ctx, group.ID, second, "")
	require.NoError(t, err)
	err = env.memberships.Approve(ctx, group.ID, second, admin)
	require.ErrorIs(t, err, repository.ErrConflict)
}

// TestReject_Flow covers plain rejection and rejection revoking an
// earlier approval.
func TestReject_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)
	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
	require.NoError(t, err)

	require.NoError(t, env.memberships.Reject(ctx, group.ID, applicant, admin))

	notes, err := env.notifier.ListNotifications(ctx, applicant)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyJoinRejected, notes[0].Kind)

	// A rejected user may request again.
	_, err = env.memberships.RequestJoin(ctx, group.ID, applicant, "second try")
	require.NoError(t, err)
	require.NoError(t, env.memberships.Approve(ctx, group.ID, applicant, admin))

	// Rejecting after approval revokes the membership.
	require.NoError(t, env.memberships.Reject(ctx, group.ID, applicant, admin))
	members, err := env.memberships.ListMembers(ctx, group.ID, admin)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Nothing left to reject.
	err = env.memberships.Reject(ctx, group.ID, applicant, admin)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// The admin cannot be rejected.
	err = env.memberships.Reject(ctx, group.ID, admin, admin)
	require.ErrorIs(t, err, repository.ErrForbidden)
}

// TestRemove_Flow covers admin removal, self-leave and the admin
// protection.
func TestRemove_Flow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	member := env.newUser(t)
	leaver := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)
	for _, uid := range []uint64{member, leaver} {
		_, err = env.memberships.RequestJoin(ctx, group.ID, uid, "")
		require.NoError(t, err)
		require.NoError(t, env.memberships.Approve(ctx, group.ID, uid, admin))
	}

	// A member cannot remove another member.
	err = env.memberships.Remove(ctx, group.ID, member, leaver)
	require.ErrorIs(t, err, repository.ErrForbidden)

	// Self-leave needs no admin rights.
	require.NoError(t, env.memberships.Remove(ctx, group.ID, leaver, leaver))

	// Admin removes a member, who is notified.
	require.NoError(t, env.memberships.Remove(ctx, group.ID, member, admin))
	notes, err := env.notifier.ListNotifications(ctx, member)
	require.NoError(t, err)
	var kinds []string
	for _, n := range notes {
		kinds = append(kinds, n.Kind)
	}
	assert.Contains(t, kinds, model.NotifyMemberRemoved)

	// The admin cannot be removed, not even by themselves.
	err = env.memberships.Remove(ctx, group.ID, admin, admin)
	require.ErrorIs(t, err, repository.ErrForbidden)
}

// TestDeleteGroup cascades memberships and requests and soft-closes
// the group's posts.
func TestDeleteGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	member := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)
	_, err = env.memberships.RequestJoin(ctx, group.ID, member, "")
	require.NoError(t, err)
	require.NoError(t, env.memberships.Approve(ctx, group.ID, member, admin))

	post, err := env.reservations.CreatePost(ctx, admin, PostInput{
		Title: "group pie", TotalCount: 2, GroupID: &group.ID,
		AvailableUntil: postWindow(),
	})
	require.NoError(t, err)

	err = env.memberships.DeleteGroup(ctx, group.ID, member)
	require.ErrorIs(t, err, repository.ErrForbidden)
	require.NoError(t, env.memberships.DeleteGroup(ctx, group.ID, admin))

	_, err = env.memberships.GetGroup(ctx, group.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := env.reservations.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

// TestListGates restricts member and request listings to the admin.
func TestListGates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	other := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)

	_, err = env.memberships.ListMembers(ctx, group.ID, other)
	require.ErrorIs(t, err, repository.ErrForbidden)
	_, err = env.memberships.ListPendingRequests(ctx, group.ID, other)
	require.ErrorIs(t, err, repository.ErrForbidden)

	_, err = env.memberships.RequestJoin(ctx, group.ID, other, "")
	require.NoError(t, err)
	mine, err := env.memberships.ListMyRequests(ctx, other)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.RequestPending, mine[0].Status)
}

// TestRequestJoin_ConcurrentSinglePending races many requests for the
// same pair. Exactly one files; the rest must see the conflict, and
// the admin gets a single notification.
func TestRequestJoin_ConcurrentSinglePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.memberships.RequestJoin(ctx, group.ID, applicant, "")
		}(i)
	}
	wg.Wait()

	filed := 0
	for _, err := range errs {
		if err == nil {
			filed++
		} else {
			require.ErrorIs(t, err, repository.ErrConflict)
		}
	}
	assert.Equal(t, 1, filed)

	var pending int
	err = env.db.QueryRow(
		`SELECT COUNT(1) FROM group_join_requests WHERE group_id = ? AND user_id = ? AND status = ?`,
		group.ID, applicant, model.RequestPending).Scan(&pending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	notes, err := env.notifier.ListNotifications(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

// TestRequestJoin_PendingUniqueBackstop drives the repository directly
// so the partial unique index, not the service's pending check, must
// reject the second insert. A resolved request frees the pair again.
func TestRequestJoin_PendingUniqueBackstop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.newUser(t)
	applicant := env.newUser(t)

	group, err := env.memberships.CreateGroup(ctx, admin, GroupInput{Name: "g"})
	require.NoError(t, err)

	requests := repository.NewJoinRequestRepo(env.db)

	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	first := model.JoinRequest{GroupID: group.ID, UserID: applicant}
	require.NoError(t, requests.CreateTx(ctx, tx, &first))
	require.NoError(t, tx.Commit())

	tx, err = env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	dup := model.JoinRequest{GroupID: group.ID, UserID: applicant}
	err = requests.CreateTx(ctx, tx, &dup)
	require.ErrorIs(t, err, repository.ErrConflict)
	require.NoError(t, tx.Rollback())

	tx, err = env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	resolved, err := requests.ResolveTx(ctx, tx, first.ID, model.RequestRejected)
	require.NoError(t, err)
	require.True(t, resolved)
	again := model.JoinRequest{GroupID: group.ID, UserID: applicant}
	require.NoError(t, requests.CreateTx(ctx, tx, &again))
	require.NoError(t, tx.Commit())
}
