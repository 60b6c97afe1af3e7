// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package expiry

const expirySchema = `
create table if not exists stake_expiry (
	stakeID blob(32) primary key,
	address blob(20) not null,
	powerUp integer not null,
	redeemable integer not null,
	redeemAt integer not null,
	status integer not null
);

create table if not exists expiry_poll (
	height integer primary key,
	timestamp integer not null
);
`
