package domain

type CommandAccessRole string

const (
	CommandAccessEveryone CommandAccessRole = "everyone"
	CommandAccessAdmins   CommandAccessRole = "admins"
)
