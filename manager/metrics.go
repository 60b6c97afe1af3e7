// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package manager

import "github.com/dposledger/ledger/metrics"

var (
	metricBlocks        = metrics.LazyLoadCounterVec("ledger_block_count", []string{"direction"})
	metricApplyDuration = metrics.LazyLoadHistogram("ledger_block_apply_duration_ms", metrics.BucketApplyMillis)
	metricRejectedTxs   = metrics.LazyLoadCounterVec("ledger_rejected_tx_count", []string{"reason"})
	metricPoolSize      = metrics.LazyLoadGauge("ledger_pool_size")
	metricTipHeight     = metrics.LazyLoadGauge("ledger_tip_height")
)
