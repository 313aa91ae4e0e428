package rpc

import (
	"math/big"
	"net/http"

	"rewardvault/native/vesting"
)

type createGrantParams struct {
	ID          string `json:"id"`
	Beneficiary string `json:"beneficiary"`
	Start       uint64 `json:"start"`
	Cliff       uint64 `json:"cliff"`
	Duration    uint64 `json:"duration"`
	Revocable   bool   `json:"revocable"`
}

type grantTokenParams struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type grantIDParams struct {
	ID string `json:"id"`
}

func (s *Server) handleVestingCreateGrant(w http.ResponseWriter, req *RPCRequest) {
	var params createGrantParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	beneficiary, rpcErr := parseAddressField(params.Beneficiary, "beneficiary")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	grant, err := s.vesting.CreateGrant(s.clock.Now(), params.ID, beneficiary, params.Start, params.Cliff, params.Duration, params.Revocable)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"id":           grant.ID,
		"grantAddress": vesting.GrantAddress(grant.ID).String(),
	})
}

func (s *Server) handleVestingRelease(w http.ResponseWriter, req *RPCRequest) {
	var params grantTokenParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	released, err := s.vesting.Release(s.clock.Now(), params.ID, params.Token)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"released": released.String()})
}

func (s *Server) handleVestingVested(w http.ResponseWriter, req *RPCRequest) {
	var params grantTokenParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	vested, err := s.vesting.VestedAmount(s.clock.Now(), params.ID, params.Token)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"vested": vested.String()})
}

func (s *Server) handleVestingReleasable(w http.ResponseWriter, req *RPCRequest) {
	var params grantTokenParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	releasable, err := s.vesting.Releasable(s.clock.Now(), params.ID, params.Token)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"releasable": releasable.String()})
}

func (s *Server) handleVestingGrantAddress(w http.ResponseWriter, req *RPCRequest) {
	var params grantIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	if params.ID == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "grant id required", nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"grantAddress": vesting.GrantAddress(params.ID).String()})
}

// handleVestingRevoke serves both revocation flavours; bearer auth has already
// been checked, so the engine call runs as the administrator.
func (s *Server) handleVestingRevoke(w http.ResponseWriter, req *RPCRequest, emergency bool) {
	var params grantTokenParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	var (
		refund *big.Int
		err    error
	)
	if emergency {
		refund, err = s.vesting.EmergencyRevoke(s.clock.Now(), s.vesting.Admin(), params.ID, params.Token)
	} else {
		refund, err = s.vesting.Revoke(s.clock.Now(), s.vesting.Admin(), params.ID, params.Token)
	}
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"refunded": refund.String()})
}
