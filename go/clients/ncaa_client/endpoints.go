package ncaa_client

const (
	// BaseURL - free mirror of the NCAA scoreboard data
	BaseURL = "https://ncaa-api.henrygd.me"

	// Paths
	scoreboardPath = "/scoreboard/basketball-men/d1/%d/%02d"

	// Headers
	JsonHeader      = "accept"
	JsonContentType = "application/json"
)
