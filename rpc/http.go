package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rewardvault/core/state"
	"rewardvault/core/types"
	"rewardvault/native/common"
	"rewardvault/native/farming"
	"rewardvault/native/staking"
	"rewardvault/native/vesting"
	"rewardvault/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the accounting engines over JSON-RPC 2.0. Mutating methods
// are serialised by a single mutex so every operation observes and leaves a
// consistent ledger.
type Server struct {
	mu      sync.Mutex
	staking *staking.Engine
	farming *farming.Engine
	vesting *vesting.Engine
	state   *state.Manager
	clock   Clock

	authToken string
	logger    *slog.Logger
	limiter   *RateLimiter
}

// NewServer wires the engines behind the RPC surface. The privileged-method
// bearer token is read from REWARDVAULT_RPC_TOKEN.
func NewServer(stakingEngine *staking.Engine, farmingEngine *farming.Engine, vestingEngine *vesting.Engine, mgr *state.Manager, clock Clock, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	token := strings.TrimSpace(os.Getenv("REWARDVAULT_RPC_TOKEN"))
	return &Server{
		staking:   stakingEngine,
		farming:   farmingEngine,
		vesting:   vestingEngine,
		state:     mgr,
		clock:     clock,
		authToken: token,
		logger:    logger,
		limiter:   NewRateLimiter(DefaultLimits(), logger),
	}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint at /, a liveness
// probe, and the Prometheus scrape endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.limiter.Middleware("rpc")).Post("/", s.handle)
	return r
}

// Start serves the router on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine sentinels onto RPC error codes. Validation
// failures surface as invalid params, everything else as a server error.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, staking.ErrInvalidAmount),
		errors.Is(err, staking.ErrInvalidDuration),
		errors.Is(err, staking.ErrInsufficientFunding),
		errors.Is(err, staking.ErrActivePeriod),
		errors.Is(err, farming.ErrInvalidAmount),
		errors.Is(err, vesting.ErrEmptyGrantID),
		errors.Is(err, vesting.ErrZeroBeneficiary),
		errors.Is(err, vesting.ErrZeroDuration),
		errors.Is(err, vesting.ErrCliffExceedsDuration),
		errors.Is(err, vesting.ErrAlreadyElapsed),
		errors.Is(err, vesting.ErrGrantNotFound),
		errors.Is(err, vesting.ErrNothingDue),
		errors.Is(err, vesting.ErrNotRevocable),
		errors.Is(err, vesting.ErrAlreadyRevoked),
		errors.Is(err, state.ErrInvalidAmount),
		errors.Is(err, state.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, vesting.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, common.ErrModulePaused), errors.Is(err, common.ErrReentrantCall):
		writeError(w, http.StatusServiceUnavailable, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func parseAddressField(raw, field string) (types.Address, *RPCError) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return types.Address{}, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s address", field), Data: err.Error()}
	}
	return addr, nil
}

func parseAmountField(raw, field string) (*big.Int, *RPCError) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid %s amount", field), Data: raw}
	}
	return value, nil
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "malformed params object", Data: err.Error()}
	}
	return nil
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(rec, r, req)
	observability.ModuleMetrics().Observe(moduleOf(req.Method), req.Method, rec.status, time.Since(started))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func moduleOf(method string) string {
	if idx := strings.IndexByte(method, '_'); idx > 0 {
		return method[:idx]
	}
	return method
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "staking_stake":
		s.handleStakingStake(w, req)
	case "staking_withdraw":
		s.handleStakingWithdraw(w, req)
	case "staking_claim":
		s.handleStakingClaim(w, req)
	case "staking_exit":
		s.handleStakingExit(w, req)
	case "staking_earned":
		s.handleStakingEarned(w, req)
	case "staking_rewardPerToken":
		s.handleStakingRewardPerToken(w, req)
	case "staking_position":
		s.handleStakingPosition(w, req)
	case "staking_pool":
		s.handleStakingPool(w, req)
	case "staking_notifyReward":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleStakingNotifyReward(w, req)
	case "staking_setRewardsDuration":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleStakingSetRewardsDuration(w, req)
	case "farm_deposit":
		s.handleFarmDeposit(w, req)
	case "farm_withdraw":
		s.handleFarmWithdraw(w, req)
	case "farm_withdrawAll":
		s.handleFarmWithdrawAll(w, req)
	case "farm_compound":
		s.handleFarmCompound(w, req)
	case "farm_pending":
		s.handleFarmPending(w, req)
	case "farm_pool":
		s.handleFarmPool(w, req)
	case "farm_position":
		s.handleFarmPosition(w, req)
	case "vesting_createGrant":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleVestingCreateGrant(w, req)
	case "vesting_release":
		s.handleVestingRelease(w, req)
	case "vesting_vested":
		s.handleVestingVested(w, req)
	case "vesting_releasable":
		s.handleVestingReleasable(w, req)
	case "vesting_grantAddress":
		s.handleVestingGrantAddress(w, req)
	case "vesting_revoke":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleVestingRevoke(w, req, false)
	case "vesting_emergencyRevoke":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleVestingRevoke(w, req, true)
	case "bank_balanceOf":
		s.handleBankBalanceOf(w, req)
	case "admin_setPaused":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleAdminSetPaused(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

type setPausedParams struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

func (s *Server) handleAdminSetPaused(w http.ResponseWriter, req *RPCRequest) {
	var params setPausedParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	module := strings.TrimSpace(params.Module)
	if module == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "module required", nil)
		return
	}
	s.state.SetPaused(module, params.Paused)
	observability.Engines().SetPause(module, params.Paused)
	writeResult(w, req.ID, map[string]bool{"paused": params.Paused})
}

type balanceOfParams struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

func (s *Server) handleBankBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params balanceOfParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.Address, "holder")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	balance, err := s.state.BalanceOf(params.Token, addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}
