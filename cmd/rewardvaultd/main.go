package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rewardvault/config"
	"rewardvault/core/events"
	"rewardvault/core/state"
	"rewardvault/core/types"
	"rewardvault/native/farming"
	"rewardvault/native/staking"
	"rewardvault/native/vesting"
	"rewardvault/observability/logging"
	"rewardvault/rpc"
	"rewardvault/storage"
)

const envPrefix = "REWARDVAULT_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memoryFlag := flag.Bool("memory", false, "DEV ONLY: run against an in-memory database")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envPrefix))
	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup(cfg.ServiceName, env)

	var db storage.Database
	if *memoryFlag {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	mintCaps, err := cfg.ParseMintCaps()
	if err != nil {
		logger.Error("Failed to parse mint caps", slog.Any("error", err))
		os.Exit(1)
	}
	mgr := state.NewManager(db, mintCaps)

	admin, err := resolveAdmin(cfg.AdminAddress)
	if err != nil {
		logger.Error("Failed to resolve admin address", slog.Any("error", err))
		os.Exit(1)
	}

	stakingEngine, err := buildStaking(cfg, mgr)
	if err != nil {
		logger.Error("Failed to initialise staking engine", slog.Any("error", err))
		os.Exit(1)
	}

	sched, err := config.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		logger.Error("Failed to load schedule file", slog.Any("error", err), slog.String("path", cfg.ScheduleFile))
		os.Exit(1)
	}
	farmingEngine, err := buildFarming(cfg, sched, mgr)
	if err != nil {
		logger.Error("Failed to initialise farming engine", slog.Any("error", err))
		os.Exit(1)
	}
	vestingEngine, err := buildVesting(admin, sched, mgr)
	if err != nil {
		logger.Error("Failed to initialise vesting engine", slog.Any("error", err))
		os.Exit(1)
	}

	emitter := events.NewSlogEmitter(logger)
	stakingEngine.SetEmitter(emitter)
	farmingEngine.SetEmitter(emitter)
	vestingEngine.SetEmitter(emitter)

	clock := rpc.NewChainClock(cfg.GenesisTime, cfg.BlockSeconds)
	server := rpc.NewServer(stakingEngine, farmingEngine, vestingEngine, mgr, clock, logger)

	logger.Info("reward vault ready",
		slog.String("rpc", cfg.RPCAddress),
		slog.Uint64("height", clock.Height()),
		slog.Uint64("farm_end_block", farmingEngine.Schedule().EndBlock()),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func resolveAdmin(raw string) (types.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.Address{}, fmt.Errorf("AdminAddress must be set")
	}
	return types.ParseAddress(trimmed)
}

// stakingPoolAddress is the well-known ledger account holding staked principal
// and the reward reservoir for the time-rate pool.
func stakingPoolAddress() types.Address {
	return moduleAddress("staking/pool")
}

func farmPoolAddress() types.Address {
	return moduleAddress("farm/pool")
}

func farmOtherAddress() types.Address {
	return moduleAddress("farm/other")
}

func moduleAddress(name string) types.Address {
	var addr types.Address
	copy(addr[:], name)
	return addr
}

func buildStaking(cfg *config.Config, mgr *state.Manager) (*staking.Engine, error) {
	engine := staking.NewEngine(stakingPoolAddress(), cfg.StakeToken, cfg.RewardToken)
	engine.SetState(mgr)
	engine.SetVault(mgr)
	engine.SetPauses(mgr)

	// Seed the pool record on first boot so the configured duration applies.
	pool, err := mgr.StakingPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		if err := mgr.PutStakingPool(staking.NewPool(cfg.StakingDuration)); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func buildFarming(cfg *config.Config, sched *config.ScheduleFile, mgr *state.Manager) (*farming.Engine, error) {
	phases := make([]farming.Phase, 0, len(sched.Farming.Phases))
	for _, spec := range sched.Farming.Phases {
		stakingRate, err := config.ParseAmount(spec.StakingRate)
		if err != nil {
			return nil, err
		}
		otherRate, err := config.ParseAmount(spec.OtherRate)
		if err != nil {
			return nil, err
		}
		phases = append(phases, farming.Phase{StakingRate: stakingRate, OtherRate: otherRate, Blocks: spec.Blocks})
	}
	reserved, err := sched.Farming.ReservedAmount()
	if err != nil {
		return nil, err
	}
	schedule, err := farming.NewSchedule(sched.Farming.StartBlock, phases, reserved)
	if err != nil {
		return nil, err
	}

	engine := farming.NewEngine(schedule, farmPoolAddress(), farmOtherAddress(), cfg.FarmToken)
	engine.SetState(mgr)
	engine.SetVault(mgr)
	engine.SetMinter(mgr)
	engine.SetPauses(mgr)
	return engine, nil
}

func buildVesting(admin types.Address, sched *config.ScheduleFile, mgr *state.Manager) (*vesting.Engine, error) {
	engine := vesting.NewEngine(admin)
	engine.SetState(mgr)
	engine.SetVault(mgr)
	engine.SetPauses(mgr)

	// Grants from the schedule file are created once; existing records win.
	for _, spec := range sched.Grants {
		existing, err := mgr.VestingGrant(spec.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		beneficiary, err := types.ParseAddress(spec.Beneficiary)
		if err != nil {
			return nil, fmt.Errorf("grant %s: %w", spec.ID, err)
		}
		grant, err := vesting.NewGrant(spec.ID, beneficiary, spec.Start, spec.Cliff, spec.Duration, spec.Revocable, 0)
		if err != nil {
			return nil, fmt.Errorf("grant %s: %w", spec.ID, err)
		}
		if err := mgr.PutVestingGrant(grant); err != nil {
			return nil, err
		}
	}
	return engine, nil
}
