package redis

import "github.com/redis/go-redis/v9"

const (
	createResultDuplicate     = -1
	createResultAccountTaken  = -2
	updateResultMissing       = -1
	updateResultStatusUpdated = 1
)

// KEYS: customer hash, account key, id sequence, order list, status counts.
// ARGV: contact id, name, age, address, account number, status, balance, timestamp.
var createCustomerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return -1
end
if redis.call('EXISTS', KEYS[2]) == 1 then
  return -2
end
local id = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[1],
  'id', id,
  'contact_id', ARGV[1],
  'name', ARGV[2],
  'age', ARGV[3],
  'address', ARGV[4],
  'account_number', ARGV[5],
  'status', ARGV[6],
  'opening_balance', ARGV[7],
  'created_at', ARGV[8],
  'updated_at', ARGV[8])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('RPUSH', KEYS[4], ARGV[1])
redis.call('HINCRBY', KEYS[5], ARGV[6], 1)
return id
`)

// KEYS: customer hash, status counts. ARGV: new status, timestamp.
var updateStatusScript = redis.NewScript(`
local old = redis.call('HGET', KEYS[1], 'status')
if not old then
  return -1
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'updated_at', ARGV[2])
if old ~= ARGV[1] then
  redis.call('HINCRBY', KEYS[2], old, -1)
  redis.call('HINCRBY', KEYS[2], ARGV[1], 1)
end
return 1
`)
