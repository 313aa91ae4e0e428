package rpc

import (
	"net/http"

	"rewardvault/native/farming"
	"rewardvault/observability"
)

type farmAmountParams struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

type farmAccountParams struct {
	From string `json:"from"`
}

func (s *Server) handleFarmDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params farmAmountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	amount, rpcErr := parseAmountField(params.Amount, "deposit")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.farming.Deposit(s.clock.Height(), addr, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordFarmGauge()
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFarmWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params farmAmountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	amount, rpcErr := parseAmountField(params.Amount, "withdraw")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.farming.Withdraw(s.clock.Height(), addr, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordFarmGauge()
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFarmWithdrawAll(w http.ResponseWriter, req *RPCRequest) {
	var params farmAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	payout, err := s.farming.WithdrawAll(s.clock.Height(), addr)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordFarmGauge()
	writeResult(w, req.ID, map[string]string{"payout": payout.String()})
}

func (s *Server) handleFarmCompound(w http.ResponseWriter, req *RPCRequest) {
	var params farmAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.farming.HarvestAndCompound(s.clock.Height(), addr)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordFarmGauge()
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleFarmPending(w http.ResponseWriter, req *RPCRequest) {
	var params farmAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	pending, err := s.farming.CalculatePendingRewards(s.clock.Height(), addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"pending": pending.String()})
}

type farmPoolResult struct {
	LastRewardBlock uint64 `json:"lastRewardBlock"`
	PhaseIndex      uint32 `json:"phaseIndex"`
	AccPerShare     string `json:"accPerShare"`
	TotalStaked     string `json:"totalStaked"`
	OtherMinted     string `json:"otherMinted"`
	EndBlock        uint64 `json:"endBlock"`
}

func (s *Server) handleFarmPool(w http.ResponseWriter, req *RPCRequest) {
	pool, err := s.farming.Pool(s.clock.Height())
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, farmPoolResult{
		LastRewardBlock: pool.LastRewardBlock,
		PhaseIndex:      pool.PhaseIndex,
		AccPerShare:     pool.AccPerShare.String(),
		TotalStaked:     pool.TotalStaked.String(),
		OtherMinted:     pool.OtherMinted.String(),
		EndBlock:        s.farming.Schedule().EndBlock(),
	})
}

type farmPositionResult struct {
	Address    string `json:"address"`
	Principal  string `json:"principal"`
	RewardDebt string `json:"rewardDebt"`
}

func (s *Server) handleFarmPosition(w http.ResponseWriter, req *RPCRequest) {
	var params farmAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	pos, err := s.state.FarmingPosition(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if pos == nil {
		pos = farming.NewPosition(addr)
	}
	writeResult(w, req.ID, farmPositionResult{
		Address:    addr.String(),
		Principal:  pos.Principal.String(),
		RewardDebt: pos.RewardDebt.String(),
	})
}

func (s *Server) recordFarmGauge() {
	pool, err := s.state.FarmingPool()
	if err != nil || pool == nil {
		return
	}
	observability.Engines().RecordTotalStaked("farming", pool.TotalStaked)
}
