package plugins

import (
	"sync"

	"github.com/platinummonkey/capgate/pkg/native"
)

// Built-in profile names
const (
	ProfileMinimal        = "minimal"
	ProfileStandardCPU    = "standard-cpu"
	ProfileGPUAccelerated = "gpu-accelerated"
	ProfileResearch       = "research"
	ProfileVisualization  = "visualization"
	ProfileAgricultural   = "agricultural"
	ProfileComplete       = "complete"

	// DefaultProfileName is selected when configuration names no profile
	DefaultProfileName = ProfileStandardCPU
)

var (
	allPlatforms = []native.Platform{native.PlatformLinux, native.PlatformMacOS, native.PlatformWindows}
	gpuPlatforms = []native.Platform{native.PlatformLinux, native.PlatformWindows}
)

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(DefaultPlugins(), DefaultProfiles())
	if err != nil {
		panic("plugins: built-in catalog is invalid: " + err.Error())
	}
	return c
})

// DefaultCatalog returns the built-in catalog. The value is shared and immutable.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// DefaultPlugins returns metadata for every plugin the engine can be built with
func DefaultPlugins() []Metadata {
	return []Metadata{
		{
			Name:               "radiation",
			Description:        "Ray-traced radiation transport",
			SystemDependencies: []string{"cuda", "optix"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"radiation", "gpu", "research"},
			TestSymbols:        []string{"createRadiationModel"},
		},
		{
			Name:               "visualizer",
			Description:        "OpenGL scene visualization",
			SystemDependencies: []string{"opengl"},
			Platforms:          allPlatforms,
			Optional:           true,
			ProfileTags:        []string{"visualization"},
			TestSymbols:        []string{"createVisualizer"},
		},
		{
			Name:        "weberpenntree",
			Description: "Procedural tree generation",
			Platforms:   allPlatforms,
			ProfileTags: []string{"geometry", "vegetation"},
			TestSymbols: []string{"createWeberPennTree"},
		},
		{
			Name:        "canopygenerator",
			Description: "Plant canopy geometry generation",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"geometry", "vegetation"},
			TestSymbols: []string{"createCanopyGenerator"},
		},
		{
			Name:        "solarposition",
			Description: "Solar position and ambient conditions",
			Platforms:   allPlatforms,
			ProfileTags: []string{"environment"},
			TestSymbols: []string{"createSolarPosition"},
		},
		{
			Name:        "stomatalconductance",
			Description: "Stomatal conductance models",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"physiology"},
			TestSymbols: []string{"createStomatalConductanceModel"},
		},
		{
			Name:        "photosynthesis",
			Description: "Leaf photosynthesis models",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"physiology"},
			TestSymbols: []string{"createPhotosynthesisModel"},
		},
		{
			Name:        "leafoptics",
			Description: "Leaf optical properties (PROSPECT)",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"radiation", "physiology"},
			TestSymbols: []string{"createLeafOptics"},
		},
		{
			Name:               "energybalance",
			Description:        "Surface energy balance solver",
			SystemDependencies: []string{"cuda"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"thermal", "physics", "gpu"},
			TestSymbols:        []string{"createEnergyBalanceModel"},
		},
		{
			Name:        "boundarylayerconductance",
			Description: "Boundary-layer conductance models",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"thermal", "physics"},
			TestSymbols: []string{"createBoundaryLayerConductanceModel"},
		},
		{
			Name:        "plantarchitecture",
			Description: "Plant architecture and growth",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"geometry", "vegetation", "growth"},
			TestSymbols: []string{"createPlantArchitecture"},
		},
		{
			Name:               "lidar",
			Description:        "Terrestrial LiDAR simulation and processing",
			SystemDependencies: []string{"cuda"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"sensing", "gpu"},
			TestSymbols:        []string{"createLiDARcloud"},
		},
		{
			Name:               "aeriallidar",
			Description:        "Aerial LiDAR simulation",
			SystemDependencies: []string{"cuda"},
			PluginDependencies: []string{"lidar"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"sensing", "gpu"},
			TestSymbols:        []string{"createAerialLiDARcloud"},
		},
		{
			Name:               "voxelintersection",
			Description:        "Voxel and primitive intersection",
			SystemDependencies: []string{"cuda"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"geometry", "gpu"},
			TestSymbols:        []string{"createVoxelIntersection"},
		},
		{
			Name:        "collisiondetection",
			Description: "Collision detection for growing geometry",
			Platforms:   allPlatforms,
			Optional:    true,
			ProfileTags: []string{"geometry", "growth"},
			TestSymbols: []string{"createCollisionDetection"},
		},
		{
			Name:               "syntheticannotation",
			Description:        "Synthetic image annotation",
			PluginDependencies: []string{"radiation", "visualizer"},
			Platforms:          gpuPlatforms,
			GPURequired:        true,
			Optional:           true,
			ProfileTags:        []string{"sensing", "machine-learning"},
			TestSymbols:        []string{"createSyntheticAnnotation"},
		},
		{
			Name:               "projectbuilder",
			Description:        "Interactive project builder",
			SystemDependencies: []string{"opengl"},
			PluginDependencies: []string{"visualizer"},
			Platforms:          allPlatforms,
			Optional:           true,
			ProfileTags:        []string{"visualization", "tooling"},
			TestSymbols:        []string{"createProjectBuilder"},
		},
	}
}

// DefaultProfiles returns the built-in profile set
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:           ProfileMinimal,
			Description:    "Core geometry and solar position only",
			Plugins:        []string{"weberpenntree", "solarposition"},
			RecommendedFor: []string{"testing", "CI", "headless servers"},
		},
		{
			Name:        ProfileStandardCPU,
			Description: "Common CPU-only plugins",
			Plugins: []string{
				"weberpenntree", "canopygenerator", "solarposition",
				"stomatalconductance", "photosynthesis", "leafoptics",
				"boundarylayerconductance", "plantarchitecture",
			},
			RecommendedFor: []string{"laptops", "general modeling"},
		},
		{
			Name:        ProfileGPUAccelerated,
			Description: "CPU plugins plus GPU radiation and energy balance",
			Plugins: []string{
				"weberpenntree", "canopygenerator", "solarposition",
				"stomatalconductance", "photosynthesis", "leafoptics",
				"boundarylayerconductance", "plantarchitecture",
				"radiation", "energybalance", "voxelintersection",
			},
			RecommendedFor: []string{"workstations with NVIDIA GPUs"},
			RequiresGPU:    true,
		},
		{
			Name:        ProfileResearch,
			Description: "Everything used in research pipelines",
			Plugins: []string{
				"weberpenntree", "canopygenerator", "solarposition",
				"stomatalconductance", "photosynthesis", "leafoptics",
				"energybalance", "boundarylayerconductance", "plantarchitecture",
				"radiation", "lidar", "aeriallidar", "voxelintersection",
				"collisiondetection", "syntheticannotation",
			},
			RecommendedFor: []string{"research clusters"},
			RequiresGPU:    true,
		},
		{
			Name:        ProfileVisualization,
			Description: "Geometry plus interactive visualization",
			Plugins: []string{
				"weberpenntree", "canopygenerator", "solarposition",
				"plantarchitecture", "visualizer", "projectbuilder",
			},
			RecommendedFor: []string{"desktop users", "teaching"},
		},
		{
			Name:        ProfileAgricultural,
			Description: "Crop physiology without GPU requirements",
			Plugins: []string{
				"canopygenerator", "solarposition", "stomatalconductance",
				"photosynthesis", "boundarylayerconductance", "plantarchitecture",
				"collisiondetection",
			},
			RecommendedFor: []string{"crop modeling"},
		},
		{
			Name:        ProfileComplete,
			Description: "Every plugin in the catalog",
			Plugins: []string{
				"radiation", "visualizer", "weberpenntree", "canopygenerator",
				"solarposition", "stomatalconductance", "photosynthesis",
				"leafoptics", "energybalance", "boundarylayerconductance",
				"plantarchitecture", "lidar", "aeriallidar", "voxelintersection",
				"collisiondetection", "syntheticannotation", "projectbuilder",
			},
			RecommendedFor: []string{"full builds"},
			RequiresGPU:    true,
		},
	}
}
