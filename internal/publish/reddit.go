package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// redditTokenURL はRedditのOAuth2トークンエンドポイント。
const redditTokenURL = "https://www.reddit.com/api/v1/access_token"

// redditSubmitURL はRedditの投稿エンドポイント。
const redditSubmitURL = "https://oauth.reddit.com/api/submit"

// SubmitResult は外部プラットフォームへの投稿結果。
type SubmitResult struct {
	ID  string
	URL string
}

// Submitter は外部プラットフォームへの投稿機能のインターフェース。
type Submitter interface {
	// SubmitPost は指定された投稿先にテキスト投稿を行う。
	// 認証情報が未設定の場合や投稿先が投稿を拒否した場合はエラーを返す。
	SubmitPost(ctx context.Context, destinationName, title, body string) (*SubmitResult, error)
}

// RedditCredentials はRedditスクリプトアプリの認証情報。
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
}

// configured は投稿に必要な認証情報が全て設定されているかを返す。
func (c RedditCredentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.Username != "" && c.Password != ""
}

// RedditClient はReddit APIへのテキスト投稿クライアント。
// スクリプトアプリのパスワードグラントでアクセストークンを取得する。
type RedditClient struct {
	creds      RedditCredentials
	conf       *oauth2.Config
	httpClient *http.Client
	submitURL  string
}

// NewRedditClient はRedditClientの新しいインスタンスを生成する。
func NewRedditClient(creds RedditCredentials) *RedditClient {
	return &RedditClient{
		creds: creds,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  redditTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		submitURL:  redditSubmitURL,
	}
}

// redditSubmitResponse はsubmit APIのレスポンス形式。
type redditSubmitResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

// SubmitPost は指定サブレディットへテキスト投稿を行う。
func (c *RedditClient) SubmitPost(ctx context.Context, destinationName, title, body string) (*SubmitResult, error) {
	if !c.creds.configured() {
		return nil, fmt.Errorf("Reddit認証情報が設定されていません")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.conf.PasswordCredentialsToken(ctx, c.creds.Username, c.creds.Password)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)
	}

	form := url.Values{}
	form.Set("sr", destinationName)
	form.Set("kind", "self")
	form.Set("title", title)
	form.Set("text", body)
	form.Set("api_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("投稿リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("投稿リクエストの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("投稿APIがエラーを返しました: status=%d", resp.StatusCode)
	}

	var parsed redditSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("投稿レスポンスの解析に失敗しました: %w", err)
	}
	if len(parsed.JSON.Errors) > 0 {
		return nil, fmt.Errorf("投稿先に拒否されました: %v", parsed.JSON.Errors)
	}

	return &SubmitResult{
		ID:  parsed.JSON.Data.ID,
		URL: parsed.JSON.Data.URL,
	}, nil
}
