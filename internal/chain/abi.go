package chain

// ERC20ABI subset of EIP-20 used by the agent.
const ERC20ABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// PoolABI supply/withdraw entry points of an Aave v3 style lending pool.
const PoolABI = `[
	{"type":"function","name":"supply","stateMutability":"nonpayable","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"onBehalfOf","type":"address"},
		{"name":"referralCode","type":"uint16"}
	],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[
		{"name":"asset","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"to","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]}
]`
