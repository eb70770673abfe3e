package notification

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

func TestDefaultRegistry(t *testing.T) {
	registry := NewDefaultRegistry()

	for _, name := range []string{"RepositoryAlert", "MergeFailure", "ParseError", "NewTranslation", "ChangedString", "MentionComment", "NewAnnouncement"} {
		_, ok := registry.Get(name)
		require.True(t, ok, "missing type %s", name)
	}

	mergeFailure, _ := registry.Get("MergeFailure")
	require.Equal(t, "RepositoryAlert", mergeFailure.Parent)
	parseError, _ := registry.Get("ParseError")
	require.Equal(t, "RepositoryAlert", parseError.Parent)

	parent, _ := registry.Get("RepositoryAlert")
	for _, child := range []*NotificationType{mergeFailure, parseError} {
		for _, action := range child.Actions {
			require.True(t, parent.Applicable(action), "parent does not cover %s", action)
		}
	}

	mention, _ := registry.Get("MentionComment")
	require.False(t, mention.Digest)
}

func TestForAction(t *testing.T) {
	registry := NewDefaultRegistry()

	var names []string
	for _, typ := range registry.ForAction(model.ActionFailedMerge) {
		names = append(names, typ.Name)
	}
	require.Equal(t, []string{"RepositoryAlert", "MergeFailure"}, names)

	names = nil
	for _, typ := range registry.ForAction(model.ActionTranslationAdded) {
		names = append(names, typ.Name)
	}
	require.Equal(t, []string{"NewTranslation", "ChangedString"}, names)

	require.Empty(t, registry.ForAction("no_such_action"))
}

func TestUnknownParentIsSevered(t *testing.T) {
	registry, errs := NewRegistry([]NotificationType{
		{Name: "Orphan", Actions: []string{"x"}, Parent: "Missing"},
	})
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], common.ErrUnknownParentNotification)

	orphan, ok := registry.Get("Orphan")
	require.True(t, ok)
	require.Empty(t, orphan.Parent)
}

func TestDuplicateTypeIsSkipped(t *testing.T) {
	registry, errs := NewRegistry([]NotificationType{
		{Name: "Dup", Actions: []string{"a"}},
		{Name: "Dup", Actions: []string{"b"}},
	})
	require.Len(t, errs, 1)
	dup, ok := registry.Get("Dup")
	require.True(t, ok)
	require.Equal(t, []string{"a"}, dup.Actions)
	require.Len(t, registry.Types(), 1)
}

func TestSubjectFallback(t *testing.T) {
	registry := NewDefaultRegistry()

	newLanguage, _ := registry.Get("NewLanguage")
	require.Equal(t, "New language cs requested", newLanguage.Subject(model.Change{Language: "cs"}))
	require.Equal(t, "New language requested", newLanguage.Subject(model.Change{}))

	mergeFailure, _ := registry.Get("MergeFailure")
	require.Equal(t, "Merge failure in sandbox/docs", mergeFailure.Subject(model.Change{ComponentID: "sandbox/docs"}))
	// Component context falls back to the project before going generic.
	require.Equal(t, "Merge failure in sandbox", mergeFailure.Subject(model.Change{ProjectID: "sandbox"}))
	require.Equal(t, "Digest: Merge failure", mergeFailure.DigestSubject())
}
