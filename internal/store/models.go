package store

import "time"

// BotKey is the fixed primary key of the singleton bot record.
const BotKey = "global"

// UserData is the relational row backing one user record.
type UserData struct {
	ID        string    `gorm:"primaryKey"`
	Data      string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (UserData) TableName() string { return "users_data" }

// GuildData is the relational row backing one guild record.
type GuildData struct {
	ID        string    `gorm:"primaryKey"`
	Data      string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (GuildData) TableName() string { return "guilds_data" }

// BotData is the relational row backing the singleton bot record.
type BotData struct {
	Key       string    `gorm:"primaryKey"`
	Data      string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (BotData) TableName() string { return "bot_data" }

// UserDoc is the JSON document of a user record.
type UserDoc struct {
	ID          string `json:"id"`
	Money       int64  `json:"money"`
	Exp         int64  `json:"exp"`
	Level       int64  `json:"level"`
	NextDailyAt int64  `json:"nextDailyAt"` // unix milliseconds, 0 = ready
}

// WelcomeConfig is the legacy welcome-message sub-config of a guild record.
type WelcomeConfig struct {
	Enabled   bool   `json:"enabled"`
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
}

// GreeterConfig holds the welcome/leave announcement channels of a guild.
type GreeterConfig struct {
	WelcomeChannelID string `json:"welcomeChannelId"`
	LeaveChannelID   string `json:"leaveChannelId"`
}

// AutoroleConfig holds the roles granted to new members and the blacklist
// of roles that must never be granted automatically.
type AutoroleConfig struct {
	Roles     []string `json:"roles"`
	Blacklist []string `json:"blacklist"`
}

// GuildDoc is the JSON document of a guild record.
type GuildDoc struct {
	ID       string         `json:"id"`
	Welcome  WelcomeConfig  `json:"welcome"`
	Greeter  GreeterConfig  `json:"greeter"`
	Autorole AutoroleConfig `json:"autorole"`
	Mode     string         `json:"mode"`
}

// BotDoc is the JSON document of the singleton bot record.
type BotDoc struct {
	Mode        string `json:"mode"`
	Maintenance bool   `json:"maintenance"`
}

func defaultUserDoc(id string) *UserDoc {
	return &UserDoc{ID: id, Level: 1}
}

func defaultGuildDoc(id string) *GuildDoc {
	return &GuildDoc{
		ID: id,
		Welcome: WelcomeConfig{
			Message: "Welcome, {user}.",
		},
		Autorole: AutoroleConfig{
			Roles:     []string{},
			Blacklist: []string{},
		},
		Mode: "normal",
	}
}

func defaultBotDoc() *BotDoc {
	return &BotDoc{Mode: "public"}
}
