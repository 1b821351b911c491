package models

// Actions carried by a ChangeEvent.
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// ChangeEvent describes a post mutation broadcast to connected subscribers.
// Events are ephemeral: subscribers that are offline at broadcast time miss
// them, there is no backlog or replay.
type ChangeEvent struct {
	Action string `json:"action"`
	Post   *Post  `json:"post"`
}
