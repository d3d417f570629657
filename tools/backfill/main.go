// Backfill seeds the Redis mapping cache from historical GiftRegistered logs.
// It walks the escrow contract's logs in bounded chunks and writes one mapping
// per decoded registration, so a fresh deployment does not start cold.
//
// Usage:
//
//	go run ./tools/backfill -rpc $RPC_URL -contract $ESCROW -from 19000000
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mapping"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
)

var (
	rpcURL       = flag.String("rpc", "", "Ethereum RPC endpoint")
	contractAddr = flag.String("contract", "", "Escrow contract address")
	redisAddr    = flag.String("redis", "localhost:6379", "Redis address")
	redisPass    = flag.String("redis-password", "", "Redis password")
	redisDB      = flag.Int("redis-db", 0, "Redis database")
	chainID      = flag.Int64("chain-id", 1, "Chain id recorded in each mapping")
	fromBlock    = flag.Uint64("from", 0, "First block to scan")
	toBlock      = flag.Uint64("to", 0, "Last block to scan (0 = chain head)")
	chunkDelay   = flag.Duration("chunk-delay", 250*time.Millisecond, "Pause between log chunks")
	dryRun       = flag.Bool("dry-run", false, "Decode and report without writing")
)

func main() {
	flag.Parse()

	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Flush(2 * time.Second)

	if *rpcURL == "" || *contractAddr == "" {
		fmt.Fprintln(os.Stderr, "both -rpc and -contract are required")
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	clock := adapter.NewClock()

	eth, err := adapter.NewEthClientDialer().Dial(ctx, *rpcURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Ethereum RPC", zap.Error(err))
	}
	defer eth.Close()

	chain, err := escrow.NewClient(*contractAddr, eth, 10*time.Second)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to initialize escrow client", zap.Error(err))
	}

	end := *toBlock
	if end == 0 {
		end, err = chain.LatestBlock(ctx)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to read chain head", zap.Error(err))
		}
	}

	var store mapping.Store
	if !*dryRun {
		redisClient := adapter.NewRedisClient(*redisAddr, *redisPass, *redisDB)
		if err := redisClient.Ping(ctx); err != nil {
			logger.FatalCtx(ctx, "Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		store = mapping.NewStore(redisClient, adapter.NewJSON(), clock, false)
	}

	logger.InfoCtx(ctx, "Starting backfill",
		zap.Uint64("from_block", *fromBlock),
		zap.Uint64("to_block", end),
		zap.Bool("dry_run", *dryRun),
	)

	var decoded, written, skipped, failed int
	for start := *fromBlock; start <= end; start += domain.LogChunkSize {
		chunkEnd := start + domain.LogChunkSize - 1
		if chunkEnd > end {
			chunkEnd = end
		}

		logs, err := chain.FilterRegistrationLogs(ctx, start, chunkEnd)
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("chunk [%d, %d] failed: %w", start, chunkEnd, err))
			failed++
			continue
		}

		for _, vLog := range logs {
			event, err := chain.DecodeRegistrationLog(vLog)
			if err != nil {
				continue
			}
			if !event.Valid() {
				skipped++
				continue
			}
			decoded++

			if *dryRun {
				continue
			}

			outcome, err := store.Store(ctx, mapping.StoreRequest{
				TokenID:     strconv.FormatUint(event.TokenID, 10),
				GiftID:      strconv.FormatUint(event.GiftID, 10),
				NFTContract: event.NFTContract,
				ChainID:     *chainID,
				UpdatedAt:   clock.Now().UTC(),
				Metadata: &domain.MappingMetadata{
					Creator:   event.Creator,
					CreatedAt: clock.Now().UTC(),
				},
			})
			if err != nil {
				logger.ErrorCtx(ctx, err, zap.Uint64("gift_id", event.GiftID))
				failed++
				continue
			}
			if outcome.Written {
				written++
			} else {
				skipped++
			}
		}

		if chunkEnd < end && *chunkDelay > 0 {
			clock.Sleep(*chunkDelay)
		}
	}

	logger.InfoCtx(ctx, "Backfill finished",
		zap.Int("decoded", decoded),
		zap.Int("written", written),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
}
