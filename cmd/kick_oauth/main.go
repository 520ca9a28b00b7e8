// Ayudante de desarrollo: recorre el flujo PKCE de Kick y deja en la
// terminal la línea KICK_ACCESS_TOKEN lista para el .env que lee cmd/bot.
// Pide los scopes que el bot necesita para publicar en el chat.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	kicksdk "github.com/glichtv/kick-sdk"
	"github.com/joho/godotenv"

	"cntBot/internal/infrastructure/logger"
)

var (
	client *kicksdk.Client
	lg     *logger.Logger

	// SOLO PARA DESARROLLO: un flujo a la vez
	lastCodeVerifier string
)

func generateCodeVerifier() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func generateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func handleStart(w http.ResponseWriter, r *http.Request) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		http.Error(w, "no pude generar code_verifier", http.StatusInternalServerError)
		return
	}

	lastCodeVerifier = verifier
	challenge := generateCodeChallenge(verifier)

	authURL := client.OAuth().AuthorizationURL(kicksdk.AuthorizationURLInput{
		ResponseType: "code",
		State:        "cntbot",
		Scopes: []kicksdk.OAuthScope{
			kicksdk.ScopeUserRead,
			kicksdk.ScopeChannelRead,
			kicksdk.ScopeChatWrite,
		},
		CodeChallenge: challenge,
	})

	lg.Info("kick-oauth: redirigiendo al consentimiento")
	http.Redirect(w, r, authURL, http.StatusFound)
}

func handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "falta code", http.StatusBadRequest)
		return
	}

	resp, err := client.OAuth().ExchangeCode(
		r.Context(),
		kicksdk.ExchangeCodeInput{
			Code:         code,
			GrantType:    "authorization_code",
			CodeVerifier: lastCodeVerifier,
		},
	)
	if err != nil {
		http.Error(w, "error intercambiando code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Fprintln(w, "Tokens emitidos; la línea para el .env está en la terminal.")

	fmt.Println("\n=== COPIA ESTO A TU .env ===")
	fmt.Printf("KICK_ACCESS_TOKEN=%s\n", resp.Payload.AccessToken)
	fmt.Println("# completa también KICK_BROADCASTER_USER_ID, KICK_CHATROOM_ID y KICK_BOT_USER_ID")
	fmt.Println("# (el chatroom id sale de https://kick.com/api/v2/channels/{slug}, campo chatroom.id)")
	fmt.Printf("# refresh token (guárdalo aparte): %s\n", resp.Payload.RefreshToken)
	fmt.Println("============================")

	lg.Info("kick-oauth: tokens emitidos", "expires_in", resp.Payload.ExpiresIn)
}

func main() {
	var err error
	lg, err = logger.New("dev")
	if err != nil {
		fmt.Println("logger:", err)
		os.Exit(1)
	}
	defer lg.Sync()

	if err := godotenv.Load(); err != nil {
		lg.Warn("kick-oauth: sin .env, usando variables del entorno")
	}

	clientID := os.Getenv("KICK_CLIENT_ID")
	clientSecret := os.Getenv("KICK_CLIENT_SECRET")
	redirectURI := os.Getenv("KICK_REDIRECT_URI")
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/oauth/kick/callback"
	}

	if clientID == "" || clientSecret == "" {
		lg.Fatal("kick-oauth: faltan KICK_CLIENT_ID o KICK_CLIENT_SECRET en .env")
	}

	client = kicksdk.NewClient(
		kicksdk.WithCredentials(kicksdk.Credentials{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURI:  redirectURI,
		}),
	)

	addr := os.Getenv("OAUTH_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	http.HandleFunc("/oauth/kick", handleStart)
	http.HandleFunc("/oauth/kick/callback", handleCallback)

	lg.Info("kick-oauth: listo", "addr", addr)
	fmt.Printf("➡ Abre en el navegador: http://localhost%s/oauth/kick\n", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		lg.Fatal("kick-oauth: server", "error", err)
	}
}
