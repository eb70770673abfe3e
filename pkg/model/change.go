package model

import (
	"time"
)

// Change actions form the platform's event taxonomy. New actions are added by
// registering notification types that consume them; the engine itself never
// interprets an action beyond matching it against the registry.
const (
	ActionFailedMerge        = "failed_merge"
	ActionFailedRebase       = "failed_rebase"
	ActionFailedPush         = "failed_push"
	ActionParseError         = "parse_error"
	ActionAlertTriggered     = "alert_triggered"
	ActionNewString          = "new_string"
	ActionTranslationAdded   = "translation_added"
	ActionTranslationChanged = "translation_changed"
	ActionTranslationRevert  = "translation_reverted"
	ActionContributorJoined  = "contributor_joined"
	ActionSuggestionAdded    = "suggestion_added"
	ActionCommentAdded       = "comment_added"
	ActionCommentMention     = "comment_mention"
	ActionComponentCreated   = "component_created"
	ActionLanguageRequested  = "language_requested"
	ActionAnnouncementPosted = "announcement_posted"
)

// Change is an immutable fact produced by platform activity. A change with an
// empty ProjectID is site wide. The Details map carries rendering context the
// engine passes through untouched.
type Change struct {
	ID            int64             `json:"id"`
	Action        string            `json:"action"`
	ProjectID     string            `json:"project_id,omitempty"`
	ComponentID   string            `json:"component_id,omitempty"`
	TranslationID string            `json:"translation_id,omitempty"`
	Language      string            `json:"language,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}
