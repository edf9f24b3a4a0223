package mapreduce

import "hash/fnv"

// PartitionKey computes the partition for a key using FNV-1a hash
func PartitionKey(key string, numPartitions int) int {
	if numPartitions <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))

	return int(h.Sum32() % uint32(numPartitions))
}
