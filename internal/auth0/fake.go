package auth0

import "context"

// FakeClient is a test implementation of Client, keyed by access token.
type FakeClient struct {
	Users map[string]*UserInfo
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Users: make(map[string]*UserInfo),
	}
}

func (c *FakeClient) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if user, ok := c.Users[accessToken]; ok {
		return user, nil
	}
	return nil, ErrUserInfoFailed
}

func (c *FakeClient) AddUser(accessToken string, info *UserInfo) {
	c.Users[accessToken] = info
}
