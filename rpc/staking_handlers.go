package rpc

import (
	"net/http"

	"rewardvault/native/staking"
	"rewardvault/observability"
)

type stakingAmountParams struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

type stakingAccountParams struct {
	From string `json:"from"`
}

func (s *Server) handleStakingStake(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAmountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	amount, rpcErr := parseAmountField(params.Amount, "stake")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.staking.Stake(s.clock.Now(), addr, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordStakedGauge()
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleStakingWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAmountParams
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
	err := s.staking.Withdraw(s.clock.Now(), addr, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordStakedGauge()
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleStakingClaim(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
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
	reward, err := s.staking.ClaimReward(s.clock.Now(), addr)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"reward": reward.String()})
}

func (s *Server) handleStakingExit(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
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
	reward, err := s.staking.Exit(s.clock.Now(), addr)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	s.recordStakedGauge()
	writeResult(w, req.ID, map[string]string{"reward": reward.String()})
}

func (s *Server) handleStakingEarned(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	earned, err := s.staking.Earned(s.clock.Now(), addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"earned": earned.String()})
}

func (s *Server) handleStakingRewardPerToken(w http.ResponseWriter, req *RPCRequest) {
	value, err := s.staking.RewardPerToken(s.clock.Now())
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"rewardPerToken": value.String()})
}

type stakingPositionResult struct {
	Address            string `json:"address"`
	Balance            string `json:"balance"`
	RewardPerTokenPaid string `json:"rewardPerTokenPaid"`
	Accrued            string `json:"accrued"`
}

func (s *Server) handleStakingPosition(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, rpcErr := parseAddressField(params.From, "from")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	pos, err := s.state.StakingPosition(addr)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if pos == nil {
		pos = staking.NewPosition(addr)
	}
	writeResult(w, req.ID, stakingPositionResult{
		Address:            addr.String(),
		Balance:            pos.Balance.String(),
		RewardPerTokenPaid: pos.RewardPerTokenPaid.String(),
		Accrued:            pos.Accrued.String(),
	})
}

type stakingPoolResult struct {
	RewardsDuration      uint64 `json:"rewardsDuration"`
	PeriodFinish         uint64 `json:"periodFinish"`
	RewardRate           string `json:"rewardRate"`
	LastUpdateTime       uint64 `json:"lastUpdateTime"`
	RewardPerTokenStored string `json:"rewardPerTokenStored"`
	TotalStaked          string `json:"totalStaked"`
}

func (s *Server) handleStakingPool(w http.ResponseWriter, req *RPCRequest) {
	pool, err := s.state.StakingPool()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if pool == nil {
		pool = staking.NewPool(0)
	}
	writeResult(w, req.ID, stakingPoolResult{
		RewardsDuration:      pool.RewardsDuration,
		PeriodFinish:         pool.PeriodFinish,
		RewardRate:           pool.RewardRate.String(),
		LastUpdateTime:       pool.LastUpdateTime,
		RewardPerTokenStored: pool.RewardPerTokenStored.String(),
		TotalStaked:          pool.TotalStaked.String(),
	})
}

type notifyRewardParams struct {
	Reward string `json:"reward"`
}

func (s *Server) handleStakingNotifyReward(w http.ResponseWriter, req *RPCRequest) {
	var params notifyRewardParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	reward, rpcErr := parseAmountField(params.Reward, "reward")
	if rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.staking.NotifyRewardAmount(s.clock.Now(), reward)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type setDurationParams struct {
	Duration uint64 `json:"duration"`
}

func (s *Server) handleStakingSetRewardsDuration(w http.ResponseWriter, req *RPCRequest) {
	var params setDurationParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}

	s.mu.Lock()
	err := s.staking.SetRewardsDuration(s.clock.Now(), params.Duration)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) recordStakedGauge() {
	pool, err := s.state.StakingPool()
	if err != nil || pool == nil {
		return
	}
	observability.Engines().RecordTotalStaked("staking", pool.TotalStaked)
}
