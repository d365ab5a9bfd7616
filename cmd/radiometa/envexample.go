package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"radiometa/internal/i18n"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# radiometa Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	content.WriteString("# Format: RADIOMETA_<SETTING>=value\n")
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	generateStationSection(&content, cmd)
	generateProvidersSection(&content, cmd)
	generateLinksSection(&content, cmd)
	generatePresenterSection(&content, cmd)
	generateAppSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateLoggingSection(&content, cmd)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func writeSectionHeader(content *strings.Builder, title string, flags ...string) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", title)
	content.WriteString("# -----------------------------------------------------------------------------\n")
	if len(flags) > 0 {
		fmt.Fprintf(content, "# CLI: --%s\n", strings.Join(flags, ", --"))
	}
}

// writeDefault writes NAME=<flag default> with a trailing comment.
func writeDefault(content *strings.Builder, cmd *cobra.Command, flagName, comment string) {
	def := getDefaultValueString(cmd, flagName)
	fmt.Fprintf(content, "%s=%s  # %s (default: %s)\n", flagToEnvVar(flagName), def, comment, def)
}

func generateStationSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Station (required)",
		"station-metadata-url", "station-stream-url", "poll-interval", "fetch-timeout")

	fmt.Fprintf(content, "%s=https://radio.example.org/status-json.xsl  # Now playing metadata endpoint\n",
		flagToEnvVar("station-metadata-url"))
	fmt.Fprintf(content, "%s=https://radio.example.org/stream.mp3  # Audio stream URL\n",
		flagToEnvVar("station-stream-url"))
	writeDefault(content, cmd, "poll-interval", "How often the metadata endpoint is polled")
	writeDefault(content, cmd, "fetch-timeout", "Timeout for one metadata fetch")
	content.WriteString("\n")
}

func generateProvidersSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Artwork providers, queried in this order",
		"musicbrainz-enabled", "discogs-enabled", "discogs-token", "lastfm-api-key",
		"spotify-client-id", "spotify-client-secret", "image-search-enabled")

	writeDefault(content, cmd, "musicbrainz-enabled", "MusicBrainz and Cover Art Archive, no key needed")
	writeDefault(content, cmd, "discogs-enabled", "Discogs, needs a token")
	fmt.Fprintf(content, "# %s=your_discogs_token  # https://www.discogs.com/settings/developers\n",
		flagToEnvVar("discogs-token"))
	fmt.Fprintf(content, "# %s=your_lastfm_api_key  # https://www.last.fm/api/account/create\n",
		flagToEnvVar("lastfm-api-key"))
	fmt.Fprintf(content, "# %s=your_spotify_client_id  # https://developer.spotify.com/dashboard\n",
		flagToEnvVar("spotify-client-id"))
	fmt.Fprintf(content, "# %s=your_spotify_client_secret\n",
		flagToEnvVar("spotify-client-secret"))
	writeDefault(content, cmd, "image-search-enabled", "Web image search as last resort")
	content.WriteString("\n")

	writeSectionHeader(content, "Provider requests", "user-agent", "request-timeout", "image-proxy")
	fmt.Fprintf(content, "%s=\"%s\"  # Sent to every provider\n",
		flagToEnvVar("user-agent"), getDefaultValueString(cmd, "user-agent"))
	writeDefault(content, cmd, "request-timeout", "Timeout for one provider request")
	writeDefault(content, cmd, "image-proxy", "Passthrough for cross-origin artwork, empty disables")
	content.WriteString("\n")
}

func generateLinksSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Release links", "release-link-upgrade", "release-link-order")

	writeDefault(content, cmd, "release-link-upgrade", "Replace the search link with a release page")
	writeDefault(content, cmd, "release-link-order", "Resolvers tried in order: discogs, bandcamp")
	content.WriteString("\n")
}

func generatePresenterSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Display",
		"crossfade-duration", "artwork-size", "artwork-reduced-size", "layout-buffer",
		"panel-top", "footer-top", "accent-color")

	writeDefault(content, cmd, "crossfade-duration", "Artwork fade time")
	writeDefault(content, cmd, "artwork-size", "Normal artwork size in pixels")
	writeDefault(content, cmd, "artwork-reduced-size", "Artwork size on short screens")
	writeDefault(content, cmd, "layout-buffer", "Gap kept above the footer")
	writeDefault(content, cmd, "panel-top", "Info panel top offset")
	writeDefault(content, cmd, "footer-top", "Footer top offset, 0 means unmeasured")
	writeDefault(content, cmd, "accent-color", "Derive an accent colour from the artwork")
	content.WriteString("\n")
}

func generateAppSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Application", "language", "refresh-limit-per-minute", "history-size")

	langDefault := getDefaultValueString(cmd, "language")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	fmt.Fprintf(content, "%s=%s  # Display language: %s (default: %s)\n",
		flagToEnvVar("language"), langDefault, supportedLangs, langDefault)
	writeDefault(content, cmd, "refresh-limit-per-minute", "Manual refreshes per client per minute, 0 disables the limit")
	writeDefault(content, cmd, "history-size", "Recently played tracks kept in memory")
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "HTTP Server", "server-host", "server-port")

	hostDefault := getDefaultValueString(cmd, "server-host")
	fmt.Fprintf(content, "%s=%s  # Server bind address (default: %s)\n",
		flagToEnvVar("server-host"), "127.0.0.1", hostDefault)
	writeDefault(content, cmd, "server-port", "Server port")
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Logging", "log-level", "log-format")

	writeDefault(content, cmd, "log-level", "Log level: debug, info, warn, error")
	writeDefault(content, cmd, "log-format", "Log format: json, console")
}
