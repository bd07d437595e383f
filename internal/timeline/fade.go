package timeline

// FadeAlpha computes the draw alpha for a visual item at a local offset.
// Fade-in ramps linearly 0 to 1 over the fade duration from local 0;
// fade-out mirrors it, reaching 0 at local == duration. When the windows
// overlap the smaller ramp wins so alpha stays continuous.
func FadeAlpha(local, duration float64, audio AudioSettings) float64 {
	if !isFinite(local) || !isFinite(duration) || duration <= 0 {
		return 1
	}
	alpha := 1.0
	if audio.FadeIn.Enabled && audio.FadeIn.Duration > 0 && local < audio.FadeIn.Duration {
		if a := local / audio.FadeIn.Duration; a < alpha {
			alpha = a
		}
	}
	if audio.FadeOut.Enabled && audio.FadeOut.Duration > 0 {
		from := duration - audio.FadeOut.Duration
		if local > from {
			if a := (duration - local) / audio.FadeOut.Duration; a < alpha {
				alpha = a
			}
		}
	}
	return clamp(alpha, 0, 1)
}

// ItemGain is the audio gain for the active item at a local offset. The same
// ramps that shape the draw alpha shape the item's audio, scaled by volume,
// with mute winning over everything.
func ItemGain(it *Item, local float64) float64 {
	if it == nil || it.Audio.Mute {
		return 0
	}
	return clamp(it.Audio.Volume, 0, MaxVolume) * FadeAlpha(local, it.Duration(), it.Audio)
}
