package enums

// SubscriberStatus tracks newsletter membership.
type SubscriberStatus string

const (
	SubscriberStatusActive       SubscriberStatus = "active"
	SubscriberStatusUnsubscribed SubscriberStatus = "unsubscribed"
)

// String implements fmt.Stringer.
func (s SubscriberStatus) String() string {
	return string(s)
}
