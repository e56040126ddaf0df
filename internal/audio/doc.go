// Package audio provides the device backends the playback engine drives.
//
// Oto plays clips through the system audio device using oto/v3. Mock
// records every call and is used by tests and on machines without a
// device. Both load clips through a Loader, which decodes WAV and MP3
// sources (optionally zstd-compressed) into signed 16-bit little-endian
// PCM in the device format and keeps the result in a shared memory cache.
package audio
