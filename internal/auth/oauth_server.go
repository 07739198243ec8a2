package auth

import (
	"net/http"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"gorm.io/gorm"
)

// OAuthService issues bearer tokens to machine clients through the client
// credentials grant
type OAuthService struct {
	server *server.Server
}

func NewOAuthService(db *gorm.DB, issuer *TokenIssuer) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: issuer.TTL})
	manager.MapAccessGenerate(issuer)

	manager.MustTokenStorage(NewGormTokenStore(db), nil)
	manager.MapClientStorage(NewGormClientStore(db))

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.ClientCredentials)
	srv.SetClientInfoHandler(clientInfoHandler)

	return &OAuthService{
		server: srv,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// clientInfoHandler accepts HTTP basic credentials and falls back to form fields
func clientInfoHandler(r *http.Request) (string, string, error) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret, nil
	}
	return server.ClientFormHandler(r)
}
