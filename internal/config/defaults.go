package config

// Default returns the built-in install tables shipped with the binary.
// Every call returns a fresh copy so callers cannot alter the defaults.
func Default() Config {
	return Config{
		ToolsDir:   "/opt",
		BinDir:     "/usr/local/bin",
		GitBackend: GitBackendExec,
		AptPackages: []string{
			"git", "curl", "wget", "python3", "python3-pip",
			"python3-venv", "build-essential", "libssl-dev",
			"libffi-dev", "default-jre", "libcap2-bin",
			"nmap", "nikto", "tcpdump", "whois", "dnsutils",
			"libimage-exiftool-perl", "wireshark",
		},
		PipTools: []string{"theHarvester"},
		Repositories: []Repository{
			{
				Name:  "sqlmap",
				Repo:  "https://github.com/sqlmapproject/sqlmap.git",
				Entry: "sqlmap.py",
			},
			{
				Name:  "theHarvester",
				Repo:  "https://github.com/laramies/theHarvester.git",
				Entry: "theHarvester.py",
			},
			{
				Name:  "nikto",
				Repo:  "https://github.com/sullo/nikto.git",
				Entry: "program/nikto.pl",
			},
			{
				Name:  "setoolkit",
				Repo:  "https://github.com/trustedsec/social-engineer-toolkit.git",
				Entry: "setoolkit",
			},
		},
		Capabilities: Capabilities{
			Set:      "cap_net_raw,cap_net_admin=eip",
			Binaries: []string{"/usr/bin/tcpdump", "/usr/bin/dumpcap"},
		},
	}
}
