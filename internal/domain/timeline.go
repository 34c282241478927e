package domain

import "time"

// TimelineEvent — запись истории жизненного цикла заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
