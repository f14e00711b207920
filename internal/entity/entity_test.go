package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	e := New("acme", []byte("captured thought"))

	assert.NotEmpty(t, e.UID)
	assert.Equal(t, "acme", e.TenantID)
	assert.Equal(t, StateCapture, e.Lifecycle.State)
	assert.Equal(t, LevelPersonal, e.Sensitivity.Level)
	assert.True(t, e.Sensitivity.Privacy.LocalAIAllowed)
	assert.True(t, e.Sensitivity.Privacy.ExportAllowed)
	assert.True(t, e.Sensitivity.Privacy.SyncAllowed)
	assert.False(t, e.Sensitivity.Privacy.CloudAIAllowed)
	assert.False(t, e.Sensitivity.Privacy.ShareAllowed)

	floor, ok := DefaultPrivacy(LevelPersonal)
	require.True(t, ok)
	assert.Equal(t, floor, e.Sensitivity.Privacy, "the envelope starts at the classifier floor")
	assert.Equal(t, Checksum([]byte("captured thought")), e.Checksum)
	assert.Equal(t, e.Created, e.Updated)
}

func TestSetContent_RecomputesChecksum(t *testing.T) {
	e := New("acme", []byte("before"))
	old := e.Checksum

	e.SetContent([]byte("after"))

	assert.NotEqual(t, old, e.Checksum)
	assert.Equal(t, Checksum([]byte("after")), e.Checksum)
}

func TestClone_DeepCopy(t *testing.T) {
	e := New("acme", []byte("original"))
	e.Sensitivity.CustomRules = []PrivacyRule{
		{Condition: "true", Action: ActionDeny, Scope: FlagCloudAI, Priority: 1},
	}

	now := e.Created
	e.Lifecycle.ReviewAt = &now
	e.Lifecycle.DissolveAt = &now
	e.Override.HumanLast = &now

	clone := e.Clone()
	clone.Content[0] = 'X'
	clone.Sensitivity.CustomRules[0].Action = ActionAllow
	*clone.Lifecycle.ReviewAt = now.Add(1)
	*clone.Lifecycle.DissolveAt = now.Add(1)
	*clone.Override.HumanLast = now.Add(1)

	assert.Equal(t, byte('o'), e.Content[0])
	assert.Equal(t, ActionDeny, e.Sensitivity.CustomRules[0].Action)
	assert.True(t, e.Lifecycle.ReviewAt.Equal(now))
	assert.True(t, e.Lifecycle.DissolveAt.Equal(now))
	assert.True(t, e.Override.HumanLast.Equal(now))
}

func TestState_ForwardOrder(t *testing.T) {
	order := States()
	require.Equal(t, []State{StateCapture, StateTransitional, StatePermanent, StateArchived, StateDissolved}, order)

	for i, s := range order {
		assert.True(t, s.Valid())
		assert.Equal(t, i, s.Rank())

		next, ok := s.Next()
		if i == len(order)-1 {
			assert.False(t, ok, "dissolved has no successor")
			assert.True(t, s.Terminal())
		} else {
			require.True(t, ok)
			assert.Equal(t, order[i+1], next)
			assert.False(t, s.Terminal())
		}
	}
}

func TestState_Unknown(t *testing.T) {
	s := State("limbo")

	assert.False(t, s.Valid())
	assert.Equal(t, -1, s.Rank())

	_, ok := s.Next()
	assert.False(t, ok)
}

func TestLevel_Ordering(t *testing.T) {
	levels := Levels()
	require.Equal(t, []Level{LevelPublic, LevelPersonal, LevelConfidential, LevelSecret}, levels)

	for i := 1; i < len(levels); i++ {
		assert.True(t, levels[i].MoreRestrictiveThan(levels[i-1]),
			"%s should outrank %s", levels[i], levels[i-1])
		assert.False(t, levels[i-1].MoreRestrictiveThan(levels[i]))
	}

	assert.False(t, LevelSecret.MoreRestrictiveThan(LevelSecret))
}

func TestDefaultPrivacy_PerLevelFloor(t *testing.T) {
	public, ok := DefaultPrivacy(LevelPublic)
	require.True(t, ok)
	assert.Equal(t, PrivacyFlags{true, true, true, true, true}, public)

	secret, ok := DefaultPrivacy(LevelSecret)
	require.True(t, ok)
	assert.Equal(t, PrivacyFlags{}, secret)

	_, ok = DefaultPrivacy(Level("mystery"))
	assert.False(t, ok)
}

func TestLevel_UnknownFailsClosed(t *testing.T) {
	mystery := Level("mystery")

	assert.False(t, mystery.Valid())
	assert.True(t, mystery.MoreRestrictiveThan(LevelSecret))
	assert.False(t, LevelSecret.MoreRestrictiveThan(mystery))
}

func TestPrivacyFlags_GetWith(t *testing.T) {
	var f PrivacyFlags

	for _, scope := range FlagScopes() {
		v, ok := f.Get(scope)
		require.True(t, ok, scope)
		assert.False(t, v, scope)

		set := f.With(scope, true)
		v, ok = set.Get(scope)
		require.True(t, ok, scope)
		assert.True(t, v, scope)

		// With returns a copy.
		v, _ = f.Get(scope)
		assert.False(t, v, scope)
	}

	_, ok := f.Get("teleport_allowed")
	assert.False(t, ok, "unknown scopes resolve to not-found, never allow")

	same := f.With("teleport_allowed", true)
	assert.Equal(t, f, same)
}
