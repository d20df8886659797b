package audio

// VolumeNorm is the server volume of 100%.
const VolumeNorm = 0x10000

// ClampPercent limits v to [0, 100].
func ClampPercent(v int) uint32 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return uint32(v)
	}
}

// PercentFromVolumes returns the average of per-channel server volumes in
// percent, truncated and clamped to [0, 100].
func PercentFromVolumes(volumes []uint32) uint32 {
	if len(volumes) == 0 {
		return 0
	}

	var sum uint64
	for _, v := range volumes {
		sum += uint64(v)
	}

	avg := sum / uint64(len(volumes))
	percent := avg * 100 / VolumeNorm

	if percent > 100 {
		return 100
	}

	return uint32(percent)
}

// VolumeFromPercent converts a percentage to a server volume. It is the
// inverse of [PercentFromVolumes] for whole percentages.
func VolumeFromPercent(percent uint32) uint32 {
	if percent > 100 {
		percent = 100
	}

	return uint32((uint64(percent)*VolumeNorm + 99) / 100)
}

// ChannelVolumes returns channels copies of the server volume for percent.
func ChannelVolumes(channels uint8, percent uint32) ([]uint32, error) {
	if channels == 0 {
		return nil, ErrNoChannels
	}

	volumes := make([]uint32, channels)
	volume := VolumeFromPercent(percent)

	for i := range volumes {
		volumes[i] = volume
	}

	return volumes, nil
}
