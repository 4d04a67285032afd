package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type Router struct {
	cfg      *Config
	auth     *Auth
	repo     *Repository
	wsServer *Server
	mux      *http.ServeMux
	log      logrus.FieldLogger
}

func NewRouter(cfg *Config, auth *Auth, repo *Repository, wsServer *Server, log logrus.FieldLogger) *Router {
	router := &Router{
		cfg:      cfg,
		auth:     auth,
		repo:     repo,
		wsServer: wsServer,
		mux:      http.NewServeMux(),
		log:      log,
	}
	router.mux.HandleFunc("/register", router.register)
	router.mux.HandleFunc("/login", router.login)
	router.mux.HandleFunc("/healthz", router.healthz)
	router.mux.HandleFunc("/history", auth.Middleware(router.history))
	router.mux.HandleFunc("/ws", auth.Middleware(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(wsServer, w, r)
	}))
	return router
}

func (router *Router) Run() error {
	go router.wsServer.Run()
	router.log.WithField("addr", router.cfg.Addr).Info("listening")
	return http.ListenAndServe(router.cfg.Addr, router.logged(cors(router.mux)))
}

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (router *Router) register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Name == "" || creds.Password == "" {
		http.Error(w, "name and password required", http.StatusBadRequest)
		return
	}
	if router.repo.FindUserByName(creds.Name) != nil {
		http.Error(w, "name taken", http.StatusConflict)
		return
	}
	hash, err := GeneratePassword(creds.Password)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	user, err := router.repo.AddUser(creds.Name, hash)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	router.log.WithField("user", user.Name).Info("registered")
	router.issueToken(w, user)
}

func (router *Router) login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user := router.repo.FindUserByName(creds.Name)
	if user == nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if ok, err := ValidatePassword(creds.Password, user.Password); err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	router.issueToken(w, user)
}

func (router *Router) issueToken(w http.ResponseWriter, user *User) {
	token, err := router.auth.CreateToken(user)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

func (router *Router) history(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserContextKey).(string)
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	results, err := router.repo.MatchHistory(user, limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (router *Router) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (router *Router) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		router.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
	})
}
