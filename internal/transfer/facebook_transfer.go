package transfer

type FacebookToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type FacebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type FacebookPageList struct {
	Data []FacebookPage `json:"data"`
}

type FacebookPostResponse struct {
	ID string `json:"id"`
}
