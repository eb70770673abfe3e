package notification

import (
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

// SubjectContext names the change field a type's subject line is built from.
type SubjectContext int

const (
	SubjectContextComponent SubjectContext = iota
	SubjectContextProject
	SubjectContextLanguage
)

// NotificationType is one named rule of the registry: which actions it
// reacts to, whether a broader type subsumes it, whether it may be batched
// into digests, and how its one-line subject is built. Body rendering is the
// delivery collaborator's job.
type NotificationType struct {
	Name           string
	Actions        []string
	Parent         string
	Digest         bool
	SubjectFormat  string
	GenericSubject string
	SubjectContext SubjectContext
}

func (t *NotificationType) Applicable(action string) bool {
	for _, a := range t.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Subject builds the subject line for a change, falling back to the generic
// subject when the change lacks the field the format needs.
func (t *NotificationType) Subject(change model.Change) string {
	var arg string
	switch t.SubjectContext {
	case SubjectContextComponent:
		arg = change.ComponentID
		if arg == "" {
			arg = change.ProjectID
		}
	case SubjectContextProject:
		arg = change.ProjectID
	case SubjectContextLanguage:
		arg = change.Language
	}
	if arg == "" || t.SubjectFormat == "" {
		return t.GenericSubject
	}
	return fmt.Sprintf(t.SubjectFormat, arg)
}

// DigestSubject is the subject line for a combined digest message.
func (t *NotificationType) DigestSubject() string {
	return fmt.Sprintf("Digest: %s", t.GenericSubject)
}

// Registry is the immutable notification type table, built once at startup
// and passed explicitly into the dispatcher and digest runner.
type Registry struct {
	byName  map[string]*NotificationType
	ordered []*NotificationType
}

// NewRegistry builds a registry from the given types. A type whose parent is
// not registered keeps working with the subsumption link severed; the broken
// link is logged and reported, never fatal to the registry.
func NewRegistry(types []NotificationType) (*Registry, []error) {
	r := &Registry{
		byName: make(map[string]*NotificationType),
	}
	var errs []error
	for i := range types {
		t := types[i]
		if _, ok := r.byName[t.Name]; ok {
			log.Error("duplicate notification type skipped", zap.String("type", t.Name))
			errs = append(errs, fmt.Errorf("duplicate notification type %s", t.Name))
			continue
		}
		r.byName[t.Name] = &t
		r.ordered = append(r.ordered, &t)
	}
	for _, t := range r.ordered {
		if t.Parent == "" {
			continue
		}
		if _, ok := r.byName[t.Parent]; !ok {
			log.Error("severing unknown parent link",
				zap.String("type", t.Name),
				zap.String("parent", t.Parent))
			errs = append(errs, fmt.Errorf("type %s: parent %s: %w", t.Name, t.Parent, common.ErrUnknownParentNotification))
			t.Parent = ""
		}
	}
	return r, errs
}

func (r *Registry) Get(name string) (*NotificationType, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ForAction returns the types applicable to an action, in registration order.
func (r *Registry) ForAction(action string) []*NotificationType {
	var result []*NotificationType
	for _, t := range r.ordered {
		if t.Applicable(action) {
			result = append(result, t)
		}
	}
	return result
}

func (r *Registry) Types() []*NotificationType {
	return r.ordered
}

// NewDefaultRegistry builds the platform's stock notification table.
//
// A parent's action set covers its children's actions, so when both are
// applicable to one change the redundancy filter leaves exactly the parent's
// message for users subscribed to both.
func NewDefaultRegistry() *Registry {
	r, _ := NewRegistry([]NotificationType{
		{
			Name:           "RepositoryAlert",
			Actions:        []string{model.ActionAlertTriggered, model.ActionFailedMerge, model.ActionFailedRebase, model.ActionFailedPush, model.ActionParseError},
			Digest:         true,
			SubjectFormat:  "New alert on %s",
			GenericSubject: "New alert",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "MergeFailure",
			Actions:        []string{model.ActionFailedMerge, model.ActionFailedRebase, model.ActionFailedPush},
			Parent:         "RepositoryAlert",
			Digest:         true,
			SubjectFormat:  "Merge failure in %s",
			GenericSubject: "Merge failure",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "ParseError",
			Actions:        []string{model.ActionParseError},
			Parent:         "RepositoryAlert",
			Digest:         true,
			SubjectFormat:  "Parse error in %s",
			GenericSubject: "Parse error",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "NewString",
			Actions:        []string{model.ActionNewString},
			Digest:         true,
			SubjectFormat:  "New string to translate in %s",
			GenericSubject: "New string to translate",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "NewTranslation",
			Actions:        []string{model.ActionTranslationAdded},
			Digest:         true,
			SubjectFormat:  "New translation in %s",
			GenericSubject: "New translation",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "ChangedString",
			Actions:        []string{model.ActionTranslationChanged, model.ActionTranslationAdded, model.ActionTranslationRevert},
			Digest:         true,
			SubjectFormat:  "Changed translation in %s",
			GenericSubject: "Changed translation",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "NewContributor",
			Actions:        []string{model.ActionContributorJoined},
			Digest:         true,
			SubjectFormat:  "New contributor in %s",
			GenericSubject: "New contributor",
			SubjectContext: SubjectContextProject,
		},
		{
			Name:           "NewSuggestion",
			Actions:        []string{model.ActionSuggestionAdded},
			Digest:         true,
			SubjectFormat:  "New suggestion in %s",
			GenericSubject: "New suggestion",
			SubjectContext: SubjectContextComponent,
		},
		{
			Name:           "NewComment",
			Actions:        []string{model.ActionCommentAdded},
			Digest:         true,
			SubjectFormat:  "New comment in %s",
			GenericSubject: "New comment",
			SubjectContext: SubjectContextProject,
		},
		{
			Name:           "MentionComment",
			Actions:        []string{model.ActionCommentMention},
			Digest:         false,
			SubjectFormat:  "You were mentioned in %s",
			GenericSubject: "You were mentioned",
			SubjectContext: SubjectContextProject,
		},
		{
			Name:           "NewComponent",
			Actions:        []string{model.ActionComponentCreated},
			Digest:         true,
			SubjectFormat:  "New translation component in %s",
			GenericSubject: "New translation component",
			SubjectContext: SubjectContextProject,
		},
		{
			Name:           "NewLanguage",
			Actions:        []string{model.ActionLanguageRequested},
			Digest:         true,
			SubjectFormat:  "New language %s requested",
			GenericSubject: "New language requested",
			SubjectContext: SubjectContextLanguage,
		},
		{
			Name:           "NewAnnouncement",
			Actions:        []string{model.ActionAnnouncementPosted},
			Digest:         true,
			SubjectFormat:  "New announcement on %s",
			GenericSubject: "New announcement",
			SubjectContext: SubjectContextProject,
		},
	})
	return r
}
