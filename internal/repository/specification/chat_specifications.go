package specification

import "gorm.io/gorm"

// ByChannel filters messages by channel.
type ByChannel struct {
	Channel string
}

func (s ByChannel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("channel = ?", s.Channel)
}

// ByThreadTs filters messages belonging to one thread, including its root.
type ByThreadTs struct {
	ThreadTs string
}

func (s ByThreadTs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("thread_ts = ? OR ts = ?", s.ThreadTs, s.ThreadTs)
}

// TsBefore filters messages with a platform timestamp strictly before Ts.
type TsBefore struct {
	Ts string
}

func (s TsBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ts < ?", s.Ts)
}

// ByMessageRef filters by the platform's message reference.
type ByMessageRef struct {
	MessageRef string
}

func (s ByMessageRef) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_ref = ?", s.MessageRef)
}
