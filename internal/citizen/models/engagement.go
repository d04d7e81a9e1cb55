package models

// EngagementStatus is derived from the engagement record and survey; it is
// never stored.
type EngagementStatus string

const (
	EngagementNotContacted EngagementStatus = "not_contacted"
	EngagementContacted    EngagementStatus = "contacted"
	EngagementEngaged      EngagementStatus = "engaged"
	EngagementResponded    EngagementStatus = "responded"
)

// EngagementStatuses lists every status in funnel order.
func EngagementStatuses() []EngagementStatus {
	return []EngagementStatus{
		EngagementNotContacted,
		EngagementContacted,
		EngagementEngaged,
		EngagementResponded,
	}
}

func (s EngagementStatus) String() string {
	return string(s)
}

// EngagementStatus applies the precedence responded > engaged > contacted > not_contacted.
func (c *Citizen) EngagementStatus() EngagementStatus {
	switch {
	case c.HasResponded():
		return EngagementResponded
	case c.IsEngaged():
		return EngagementEngaged
	case c.WasContacted():
		return EngagementContacted
	default:
		return EngagementNotContacted
	}
}

func (c *Citizen) WasContacted() bool {
	return c.Engagement.SentAt != nil
}

func (c *Citizen) IsEngaged() bool {
	return c.Engagement.ClickedAt != nil
}

func (c *Citizen) HasResponded() bool {
	return c.Survey != nil
}

// IsPending reports a contacted citizen who has not answered yet.
func (c *Citizen) IsPending() bool {
	return c.WasContacted() && !c.HasResponded()
}
