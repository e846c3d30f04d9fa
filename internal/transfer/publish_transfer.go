package transfer

type PublishRequest struct {
	Platforms []string `json:"platforms"`
	Async     bool     `json:"async"`
}

type ManualConnectRequest struct {
	AccessToken string `json:"access_token"`
}
