package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/entity"
	"github.com/lorekeep/lorekeep/internal/tenant"
)

func newTestClassifier() *Classifier {
	return NewClassifier(NewConditionCache())
}

func testEntity(level entity.Level, rules ...entity.PrivacyRule) *entity.Entity {
	e := entity.New("acme", []byte("note body"))
	e.Sensitivity.Level = level
	e.Sensitivity.CustomRules = rules

	return e
}

func TestDefaultsFor(t *testing.T) {
	t.Run("public allows everything", func(t *testing.T) {
		flags, err := DefaultsFor(entity.LevelPublic)
		require.NoError(t, err)
		assert.True(t, flags.CloudAIAllowed)
		assert.True(t, flags.ShareAllowed)
	})

	t.Run("secret denies everything", func(t *testing.T) {
		flags, err := DefaultsFor(entity.LevelSecret)
		require.NoError(t, err)
		assert.Equal(t, entity.PrivacyFlags{}, flags)
	})

	t.Run("unknown level fails", func(t *testing.T) {
		_, err := DefaultsFor(entity.Level("classified"))
		require.ErrorIs(t, err, entity.ErrInvalidSensitivityLevel)
	})
}

func TestEffectiveFlags_SecretStaysClosed(t *testing.T) {
	c := newTestClassifier()
	tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)

	flags, err := c.EffectiveFlags(testEntity(entity.LevelSecret), tctx)
	require.NoError(t, err)
	assert.False(t, flags.CloudAIAllowed)
	assert.False(t, flags.LocalAIAllowed)
}

func TestEffectiveFlags_AllowRuleLoosensDefault(t *testing.T) {
	c := newTestClassifier()
	e := testEntity(entity.LevelConfidential, entity.PrivacyRule{
		Condition: `"owner" in context.roles`,
		Action:    entity.ActionAllow,
		Scope:     entity.FlagExport,
		Priority:  10,
	})

	t.Run("owner context", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)
		flags, err := c.EffectiveFlags(e, tctx)
		require.NoError(t, err)
		assert.True(t, flags.ExportAllowed)
	})

	t.Run("viewer context", func(t *testing.T) {
		tctx := tenant.NewContext("acme", "u2", []string{"viewer"}, nil)
		flags, err := c.EffectiveFlags(e, tctx)
		require.NoError(t, err)
		assert.False(t, flags.ExportAllowed)
	})
}

func TestEffectiveFlags_PriorityOrdering(t *testing.T) {
	c := newTestClassifier()
	tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)

	t.Run("higher priority wins", func(t *testing.T) {
		e := testEntity(entity.LevelSecret,
			entity.PrivacyRule{Action: entity.ActionDeny, Scope: entity.FlagCloudAI, Priority: 5},
			entity.PrivacyRule{Action: entity.ActionAllow, Scope: entity.FlagCloudAI, Priority: 10},
		)

		flags, err := c.EffectiveFlags(e, tctx)
		require.NoError(t, err)
		assert.True(t, flags.CloudAIAllowed)
	})

	t.Run("ties break by declaration order", func(t *testing.T) {
		e := testEntity(entity.LevelSecret,
			entity.PrivacyRule{Action: entity.ActionDeny, Scope: entity.FlagCloudAI, Priority: 10},
			entity.PrivacyRule{Action: entity.ActionAllow, Scope: entity.FlagCloudAI, Priority: 10},
		)

		flags, err := c.EffectiveFlags(e, tctx)
		require.NoError(t, err)
		assert.False(t, flags.CloudAIAllowed)
	})

	t.Run("secret stays closed below any matching deny", func(t *testing.T) {
		e := testEntity(entity.LevelSecret,
			entity.PrivacyRule{Action: entity.ActionAllow, Scope: entity.FlagLocalAI, Priority: 1},
			entity.PrivacyRule{Action: entity.ActionDeny, Scope: entity.FlagLocalAI, Priority: 2},
		)

		flags, err := c.EffectiveFlags(e, tctx)
		require.NoError(t, err)
		assert.False(t, flags.LocalAIAllowed)
	})
}

func TestEffectiveFlags_RedactLeavesFlags(t *testing.T) {
	c := newTestClassifier()
	tctx := tenant.NewContext("acme", "u1", []string{"viewer"}, nil)

	e := testEntity(entity.LevelPersonal, entity.PrivacyRule{
		Action:   entity.ActionRedact,
		Scope:    entity.FlagLocalAI,
		Priority: 100,
	})

	flags, err := c.EffectiveFlags(e, tctx)
	require.NoError(t, err)

	defaults, err := DefaultsFor(entity.LevelPersonal)
	require.NoError(t, err)
	assert.Equal(t, defaults, flags)
}

func TestEffectiveFlags_BrokenConditionFailsClosed(t *testing.T) {
	c := newTestClassifier()
	tctx := tenant.NewContext("acme", "u1", []string{"owner"}, nil)

	e := testEntity(entity.LevelSecret, entity.PrivacyRule{
		Condition: `this is not an expression (`,
		Action:    entity.ActionAllow,
		Scope:     entity.FlagCloudAI,
		Priority:  10,
	})

	flags, err := c.EffectiveFlags(e, tctx)
	require.NoError(t, err)
	assert.False(t, flags.CloudAIAllowed)
}

func TestEffectiveFlags_AttributeCondition(t *testing.T) {
	c := newTestClassifier()
	e := testEntity(entity.LevelConfidential, entity.PrivacyRule{
		Condition: `context.attributes["clearance"] == "high"`,
		Action:    entity.ActionAllow,
		Scope:     entity.FlagShare,
		Priority:  1,
	})

	cleared := tenant.NewContext("acme", "u1", []string{"owner"}, map[string]any{"clearance": "high"})
	flags, err := c.EffectiveFlags(e, cleared)
	require.NoError(t, err)
	assert.True(t, flags.ShareAllowed)

	uncleared := tenant.NewContext("acme", "u2", []string{"owner"}, nil)
	flags, err = c.EffectiveFlags(e, uncleared)
	require.NoError(t, err)
	assert.False(t, flags.ShareAllowed)
}
