// Ayudante de desarrollo: recorre el flujo PKCE de Twitch para la cuenta del
// BOT y deja en la terminal las líneas listas para pegar en el .env que lee
// cmd/bot (TWITCH_BOT_ACCESS_TOKEN). Solo pide los scopes que el bot usa:
// chat:read y chat:edit (el mismo token sirve para la consulta Helix de
// identidad).
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"cntBot/internal/infrastructure/logger"
)

const (
	twitchAuthorizeURL = "https://id.twitch.tv/oauth2/authorize"
	twitchTokenURL     = "https://id.twitch.tv/oauth2/token"
)

var botScopes = []string{"chat:read", "chat:edit"}

// SOLO PARA DESARROLLO: un flujo a la vez
var lastCodeVerifier string

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

func handleStart(lg *logger.Logger, redirectURI string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verifier, err := generateCodeVerifier()
		if err != nil {
			http.Error(w, "no pude generar code_verifier", http.StatusInternalServerError)
			return
		}

		lastCodeVerifier = verifier
		challenge := generateCodeChallenge(verifier)

		q := url.Values{}
		q.Set("client_id", os.Getenv("TWITCH_CLIENT_ID"))
		q.Set("redirect_uri", redirectURI)
		q.Set("response_type", "code")
		q.Set("scope", strings.Join(botScopes, " "))
		q.Set("state", "cntbot")
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")

		lg.Info("twitch-oauth: redirigiendo al consentimiento", "scopes", botScopes)
		http.Redirect(w, r, twitchAuthorizeURL+"?"+q.Encode(), http.StatusFound)
	}
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Scope        []string `json:"scope"`
	ExpiresIn    int      `json:"expires_in"`
}

func handleCallback(lg *logger.Logger, redirectURI string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "falta code", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != "cntbot" {
			http.Error(w, "state inválido", http.StatusBadRequest)
			return
		}

		data := url.Values{}
		data.Set("client_id", os.Getenv("TWITCH_CLIENT_ID"))
		data.Set("client_secret", os.Getenv("TWITCH_CLIENT_SECRET"))
		data.Set("code", code)
		data.Set("grant_type", "authorization_code")
		data.Set("redirect_uri", redirectURI)
		data.Set("code_verifier", lastCodeVerifier)

		resp, err := http.Post(twitchTokenURL, "application/x-www-form-urlencoded",
			strings.NewReader(data.Encode()))
		if err != nil {
			http.Error(w, "error llamando al token endpoint", http.StatusInternalServerError)
			return
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			lg.Error("twitch-oauth: el intercambio falló", "status", resp.StatusCode, "body", string(body))
			http.Error(w, string(body), http.StatusInternalServerError)
			return
		}

		var tokens tokenResponse
		if err := json.Unmarshal(body, &tokens); err != nil {
			http.Error(w, "error parseando respuesta", http.StatusInternalServerError)
			return
		}

		fmt.Fprintln(w, "Tokens emitidos; las líneas para el .env están en la terminal.")

		fmt.Println("\n=== COPIA ESTO A TU .env ===")
		fmt.Printf("TWITCH_BOT_ACCESS_TOKEN=%s\n", tokens.AccessToken)
		fmt.Println("# recuerda también TWITCH_BOT_USERNAME y TWITCH_BOT_CHANNELS")
		fmt.Printf("# refresh token (guárdalo aparte): %s\n", tokens.RefreshToken)
		fmt.Println("============================")

		lg.Info("twitch-oauth: tokens emitidos", "scopes", tokens.Scope, "expires_in", tokens.ExpiresIn)
	}
}

func main() {
	lg, err := logger.New("dev")
	if err != nil {
		fmt.Println("logger:", err)
		os.Exit(1)
	}
	defer lg.Sync()

	if err := godotenv.Load(); err != nil {
		lg.Warn("twitch-oauth: sin .env, usando variables del entorno")
	}

	for _, k := range []string{"TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET"} {
		if os.Getenv(k) == "" {
			lg.Fatal("twitch-oauth: falta variable en .env", "key", k)
		}
	}

	addr := os.Getenv("OAUTH_ADDR")
	if addr == "" {
		addr = ":3000"
	}
	redirectURI := os.Getenv("TWITCH_REDIRECT_URI")
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/oauth/twitch/callback"
	}

	http.HandleFunc("/oauth/twitch", handleStart(lg, redirectURI))
	http.HandleFunc("/oauth/twitch/callback", handleCallback(lg, redirectURI))

	lg.Info("twitch-oauth: listo", "addr", addr)
	fmt.Printf("➡ Abre en el navegador: http://localhost%s/oauth/twitch\n", addr)

	if err := http.ListenAndServe(addr, nil); err != nil {
		lg.Fatal("twitch-oauth: server", "error", err)
	}
}
