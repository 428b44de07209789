package verify

// Wire types for the verification backend API (JSON over HTTPS).

type verifiedRequest struct {
	UserID  string `json:"userId"`
	GuildID string `json:"guildId"`
}

type verifiedResponse struct {
	Verified          bool   `json:"verified"`
	RoleID            string `json:"roleId"`
	SotonLinkedDate   string `json:"sotonLinkedDate"`
	DiscordLinkedDate string `json:"discordLinkedDate"`
}

type guildInfoResponse struct {
	RoleID   string `json:"roleId"`
	Approved bool   `json:"approved"`
	SusuLink string `json:"susuLink"`
}

// RegisterParams is the guild registration payload submitted by /setup.
type RegisterParams struct {
	GuildID    string `json:"guildId"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	CreatedAt  string `json:"createdAt"`
	OwnerID    string `json:"ownerId"`
	SusuLink   string `json:"susuLink,omitempty"`
	InviteLink string `json:"inviteLink"`
	RoleID     string `json:"roleId"`
	RoleName   string `json:"roleName"`
	RoleColour int    `json:"roleColour"`
}

// RegisterResult reports the backend's view of a submitted registration.
type RegisterResult struct {
	Registered bool `json:"registered"`
	Approved   bool `json:"approved"`
}
