package bus

import "github.com/splinterhq/libsplinter/signal"

// WatchRegister, WatchUnregister, WatchLabelRegister and SignalCount are
// thin Bus-scoped wrappers over the signal package, exposed here since
// pub/sub is part of the collaborator-facing surface (spec §6)
// alongside Set/Get/Unset rather than a separate handle type.

func WatchRegister(b *Bus, key string, groupID uint8) error {
	return signal.WatchRegister(b.r, key, groupID)
}

func WatchUnregister(b *Bus, key string, groupID uint8) error {
	return signal.WatchUnregister(b.r, key, groupID)
}

func WatchLabelRegister(b *Bus, bloomMask uint64, groupID uint8) error {
	return signal.WatchLabelRegister(b.r.Header(), bloomMask, groupID)
}

func SignalCount(b *Bus, groupID uint8) (uint64, error) {
	return signal.SignalCount(b.r.Header(), groupID)
}
